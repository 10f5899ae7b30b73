// Command logfilter runs a filter chain over one topic of a JSON capture
// file and prints the resulting series, one value per line.
//
// Filters are given with repeated -filter flags, e.g.:
//
//	logfilter -file capture.json -topic distance \
//	    -filter MovingMedian:width=9,ratio=0.5 -filter MeanCentering
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rjboer/jsonplot/internal/filter"
	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/source"
)

type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, " ") }

func (f *filterFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var specs filterFlags
	file := flag.String("file", "", "JSON capture file to read")
	topic := flag.String("topic", "", "Topic to extract")
	listTopics := flag.Bool("topics", false, "List the topics in the file and exit")
	flag.Var(&specs, "filter", "Filter stage, Kind[:param=value,...]; repeatable")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "logfilter: -file is required")
		os.Exit(2)
	}

	logger := logging.New(logging.Warn, logging.Text, os.Stderr)
	src, err := source.NewFile(*file, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logfilter: %v\n", err)
		os.Exit(1)
	}

	if *listTopics {
		for _, t := range src.Topics() {
			fmt.Println(t)
		}
		return
	}
	if *topic == "" {
		fmt.Fprintln(os.Stderr, "logfilter: -topic is required (or use -topics)")
		os.Exit(2)
	}

	chain, err := buildChain(specs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logfilter: %v\n", err)
		os.Exit(1)
	}

	for _, v := range chain.Apply(src.Values(*topic)) {
		fmt.Println(v)
	}
}

// buildChain turns "Kind[:param=value,...]" specs into a chain.
func buildChain(specs []string) (*filter.Chain, error) {
	chain := filter.NewChain()
	for _, spec := range specs {
		kind, params, _ := strings.Cut(spec, ":")
		f, err := filter.New(strings.TrimSpace(kind))
		if err != nil {
			return nil, err
		}
		if params != "" {
			for _, pair := range strings.Split(params, ",") {
				name, value, ok := strings.Cut(pair, "=")
				if !ok {
					return nil, fmt.Errorf("malformed parameter %q in %q", pair, spec)
				}
				if err := f.Set(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
					return nil, fmt.Errorf("%s: %w", kind, err)
				}
			}
		}
		chain.Add(f)
	}
	return chain, nil
}
