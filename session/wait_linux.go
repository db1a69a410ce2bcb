//go:build linux

package session

import (
	"errors"

	"golang.org/x/sys/unix"
)

// waitExited blocks until pid has exited, leaving it unreaped. It reports
// whether the exit was observed.
func waitExited(pid int) bool {
	if pid <= 0 {
		return false
	}
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			return err == nil
		}
	}
}
