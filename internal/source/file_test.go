package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rjboer/jsonplot/internal/logging"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.json")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource(t *testing.T) {
	path := writeLog(t, "{\"distance\": 1.5, \"rssi\": -70}\n{\"distance\": 2.5}\n")

	f, err := NewFile(path, logging.NewRecorder())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if got := f.Topics(); !reflect.DeepEqual(got, []string{"distance", "rssi"}) {
		t.Errorf("Topics() = %v", got)
	}
	if got := f.Values("distance"); !reflect.DeepEqual(got, []float64{1.5, 2.5}) {
		t.Errorf("Values(distance) = %v", got)
	}
}

func TestFileSourceReload(t *testing.T) {
	path := writeLog(t, "{\"a\": 1}\n")
	f, err := NewFile(path, logging.NewRecorder())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("{\"a\": 1}\n{\"a\": 2}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := f.Values("a"); !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("Values(a) after reload = %v", got)
	}
}

func TestFileSourceHardErrors(t *testing.T) {
	if _, err := NewFile("log.csv", logging.NewRecorder()); err == nil {
		t.Error("expected error for wrong extension")
	}
	if _, err := NewFile(filepath.Join(t.TempDir(), "missing.json"), logging.NewRecorder()); err == nil {
		t.Error("expected error for missing file")
	}
}
