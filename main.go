package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/source"
)

// load is a seam for tests.
var load = func(path string) (*source.File, error) {
	return source.NewFile(path, logging.Default())
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("jsonplot", flag.ContinueOnError)
	logFile := fs.String("log-file", "", "Newline-delimited JSON capture to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *logFile
	if path == "" {
		path = getenv("JSONPLOT_LOG")
	}
	if path == "" {
		return fmt.Errorf("no capture file given: pass --log-file or set JSONPLOT_LOG")
	}

	src, err := load(path)
	if err != nil {
		return err
	}

	topics := src.Topics()
	fmt.Fprintf(out, "topics: %s\n", strings.Join(topics, ", "))
	for _, topic := range topics {
		fmt.Fprintf(out, "%s: %d samples\n", topic, len(src.Values(topic)))
	}
	return nil
}
