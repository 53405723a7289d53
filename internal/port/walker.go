package port

// FileWalker lists the files under root that should be split, sorted by
// absolute path.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

// FileInfo describes a candidate file. ModTime is in Unix seconds and is
// compared against the stored document to decide whether to split again.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// FileReader returns a file's content as text, failing on binary content.
type FileReader interface {
	ReadFile(path string) (string, error)
}
