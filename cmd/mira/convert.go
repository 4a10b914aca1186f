package main

import (
	"flag"
	"fmt"
	"os"
)

// runConvert reads a document in one format and writes it in another.
func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	from := fs.String("from", "", "Input format: json, msgpack, cbor (default: by extension)")
	to := fs.String("to", "", "Output format: json, msgpack, cbor (default: by output extension)")
	out := fs.String("o", "-", "Output file (default: stdout)")
	indent := fs.Int("indent", 2, "Indent width for JSON output (0 = compact)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mira convert [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Reads a document (\"-\" for stdin) and re-encodes it.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("convert: expected one input file, got %d", fs.NArg())
	}
	in := fs.Arg(0)

	node, err := readTree(in, *from)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	outFormat := *to
	if outFormat == "" {
		if *out == "-" {
			outFormat = formatJSON
		} else {
			outFormat = detectFormat(*out)
		}
	}
	if err := writeTree(*out, outFormat, *indent, node); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	return nil
}
