package source

import (
	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/samplestore"
)

// File is a source backed by a newline-delimited JSON log file. Reload
// re-reads the file from scratch so a refresh tick picks up appended lines.
type File struct {
	path  string
	store *samplestore.Store
}

// NewFile builds a file source and performs the initial load. The path must
// carry a .json extension and must be openable; both are hard errors.
func NewFile(path string, logger logging.Logger) (*File, error) {
	f := &File{path: path, store: samplestore.New(logger)}
	if err := f.store.IngestFile(path); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Reload clears the store and re-ingests the file.
func (f *File) Reload() error {
	f.store.Clear()
	return f.store.IngestFile(f.path)
}

// Topics implements Source.
func (f *File) Topics() []string { return f.store.Topics() }

// Values implements Source.
func (f *File) Values(topic string) []float64 { return f.store.Values(topic) }

// RawValues returns the topic series with original types.
func (f *File) RawValues(topic string) []any { return f.store.RawValues(topic) }
