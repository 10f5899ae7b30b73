package logging

import "sync"

// Entry is one captured log call.
type Entry struct {
	Level  Level
	Msg    string
	Fields []Field
}

type recorderCore struct {
	mu      sync.Mutex
	entries []Entry
}

// Recorder is a Logger that captures entries in memory. Tests use it to
// assert that ingestion emitted the expected diagnostics. Loggers derived
// via With share the same capture buffer.
type Recorder struct {
	core   *recorderCore
	fields []Field
}

// NewRecorder returns an empty in-memory logger.
func NewRecorder() *Recorder {
	return &Recorder{core: &recorderCore{}}
}

func (r *Recorder) record(level Level, msg string, fields []Field) {
	all := append(append([]Field{}, r.fields...), fields...)
	r.core.mu.Lock()
	r.core.entries = append(r.core.entries, Entry{Level: level, Msg: msg, Fields: all})
	r.core.mu.Unlock()
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record(Debug, msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record(Info, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record(Warn, msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record(Error, msg, fields) }

// With returns a child logger whose entries land in the same buffer.
func (r *Recorder) With(fields ...Field) Logger {
	return &Recorder{
		core:   r.core,
		fields: append(append([]Field{}, r.fields...), fields...),
	}
}

// Entries returns a copy of everything captured so far.
func (r *Recorder) Entries() []Entry {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	out := make([]Entry, len(r.core.entries))
	copy(out, r.core.entries)
	return out
}

// Count returns the number of captured entries at the given level.
func (r *Recorder) Count(level Level) int {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	n := 0
	for _, e := range r.core.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
