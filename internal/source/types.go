// Package source holds document text and converts between byte offsets,
// line/column pairs and the UTF-16 positions editors speak.
package source

type (
	// FileID identifies a file within a FileSet.
	FileID uint32
	// FileFlags records how a file's bytes were normalized on load.
	FileFlags uint8
)

const (
	// FileVirtual marks content that did not come from disk (stdin, tests).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one loaded source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Lines   *Lines
	Flags   FileFlags
}

// LineCol is a 0-based line and byte column.
type LineCol struct {
	Line int
	Col  int
}
