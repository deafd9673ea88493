package fsutil

// FileStore provides an interface for file system reads, so extraction can
// be tested against in-memory files.
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)
}
