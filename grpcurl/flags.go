package grpcurl

// grpcurl flag and verb names. Update here when the CLI changes.
const (
	// Transport flags
	FlagPlaintext = "-plaintext" // Use plain-text HTTP/2 (no TLS)
	FlagInsecure  = "-insecure"  // Skip server certificate verification

	// Schema flags
	FlagImportPath = "-import-path" // Directory searched for proto imports (repeatable)
	FlagProto      = "-proto"       // Proto source file to use instead of reflection (repeatable)

	// Request flags
	FlagData    = "-d"        // Request data; "@" reads from stdin
	FlagHeader  = "-H"        // Additional request header "name: value" (repeatable)
	FlagMaxTime = "-max-time" // Maximum total operation time in seconds

	// Output flags
	FlagFormat = "-format" // Request/response format: json or text

	// Verbs
	VerbList     = "list"
	VerbDescribe = "describe"
)

// Flag values.
const (
	DataFromStdin = "@"
	FormatVerbose = "verbose"
)

// DefaultPath is the binary looked up on PATH when no path is configured.
const DefaultPath = "grpcurl"
