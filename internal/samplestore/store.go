// Package samplestore accumulates line-delimited JSON telemetry records and
// exposes per-topic numeric projections for the filter pipeline.
package samplestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rjboer/jsonplot/internal/logging"
)

// Store errors.
var (
	// ErrBadExtension indicates the log file does not carry a .json suffix.
	ErrBadExtension = errors.New("file extension is not valid, provide a .json file")
)

// Record is one parsed JSON object. Top-level key order is preserved so that
// topic discovery reports keys in document order.
type Record struct {
	keys   []string
	fields map[string]any
}

// Keys returns the record's top-level keys in document order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Store is an append-only sequence of records. A background reader may
// ingest while a refresh tick reads; all accessors return snapshot copies.
type Store struct {
	mu      sync.RWMutex
	records []Record
	logger  logging.Logger
}

// New builds an empty store. A nil logger falls back to the process default.
func New(logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{logger: logger}
}

// IngestLine parses one line as a JSON record and appends it. Lines that do
// not open a JSON object are rejected before parsing; parse failures drop
// the line silently. Reports whether a record was appended.
func (s *Store) IngestLine(line string) bool {
	if !strings.HasPrefix(line, "{") {
		return false
	}
	rec, err := parseRecord([]byte(line))
	if err != nil {
		return false
	}
	s.append(rec)
	return true
}

// IngestFile loads a newline-delimited JSON log. The path must end in
// .json; a file that cannot be opened is a hard error. Malformed lines are
// skipped with a diagnostic naming the line index and never abort the load.
func (s *Store) IngestFile(path string) error {
	if !strings.HasSuffix(path, ".json") {
		return ErrBadExtension
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for idx := 0; scanner.Scan(); idx++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if s.IngestLine(line) {
			continue
		}
		s.logger.Warn("line is not properly formatted and will be ignored",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "line", Value: idx},
		)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}

// Topics returns every distinct key seen across all records, in first-seen
// order.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var topics []string
	for _, rec := range s.records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			topics = append(topics, k)
		}
	}
	return topics
}

// Values returns the series recorded under topic in arrival order, cast to
// float64. Records lacking the topic are skipped; values that cannot be
// cast are dropped with a diagnostic.
func (s *Store) Values(topic string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var values []float64
	for _, rec := range s.records {
		v, ok := rec.fields[topic]
		if !ok {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			s.logger.Warn("value cannot be safely cast to a float",
				logging.Field{Key: "topic", Value: topic},
				logging.Field{Key: "value", Value: v},
			)
			continue
		}
		values = append(values, f)
	}
	return values
}

// RawValues returns the series recorded under topic with original types.
func (s *Store) RawValues(topic string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var values []any
	for _, rec := range s.records {
		if v, ok := rec.fields[topic]; ok {
			values = append(values, v)
		}
	}
	return values
}

// Len reports the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear erases all records gathered so far.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

func (s *Store) append(rec Record) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// parseRecord unmarshals one JSON object and extracts its top-level keys in
// document order. encoding/json maps lose key order, so the order comes
// from a second pass over the token stream.
func parseRecord(line []byte) (Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		return Record{}, err
	}
	keys, err := topLevelKeys(line)
	if err != nil {
		return Record{}, err
	}
	return Record{keys: keys, fields: fields}, nil
}

func topLevelKeys(line []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("record is not a JSON object")
	}

	var keys []string
	depth := 1
	isKey := true
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 1 {
					isKey = true
				}
			}
		default:
			if depth == 1 {
				if isKey {
					keys = append(keys, t.(string))
					isKey = false
				} else {
					isKey = true
				}
			}
		}
	}
	return keys, nil
}

// toFloat applies the numeric cast policy: numbers pass through, numeric
// strings are parsed, booleans map to 1/0. Everything else is dropped.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
