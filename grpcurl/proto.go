package grpcurl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// protoFilePrefix names staged proto files so stale ones are easy to spot.
const protoFilePrefix = "grpcstream_"

// ProtoFile is caller-supplied proto text staged to a uniquely named
// temporary file. Remove is idempotent and safe on a nil receiver.
type ProtoFile struct {
	Path string

	removeOnce sync.Once
	removeErr  error
}

// StageProto writes content to a new file in dir (os.TempDir when empty).
func StageProto(dir, content string) (*ProtoFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s%s.proto", protoFilePrefix, uuid.NewString()))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("write temp proto: %w", err)
	}
	return &ProtoFile{Path: path}, nil
}

// Dir returns the directory holding the staged file, used as the import path.
func (p *ProtoFile) Dir() string {
	if p == nil {
		return ""
	}
	return filepath.Dir(p.Path)
}

// Remove deletes the staged file. A file that is already gone is not an error.
func (p *ProtoFile) Remove() error {
	if p == nil {
		return nil
	}
	p.removeOnce.Do(func() {
		if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.removeErr = fmt.Errorf("remove temp proto: %w", err)
		}
	})
	return p.removeErr
}
