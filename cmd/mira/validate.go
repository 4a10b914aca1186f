package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/chazu/mira/config"
	"github.com/chazu/mira/schema"
)

// runValidate checks a document against a CUE schema.
func runValidate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "CUE schema file (default: settings.schema from mira.toml)")
	format := fs.String("format", "", "Document format: json, msgpack, cbor (default: by extension)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mira validate [options] <file>\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("validate: expected one document file, got %d", fs.NArg())
	}

	path := *schemaPath
	if path == "" {
		path = cfg.SchemaPath()
	}
	if path == "" {
		return fmt.Errorf("validate: no schema given and none configured in mira.toml")
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("validate: reading schema: %w", err)
	}
	sch, err := schema.Compile(path, string(source))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	node, err := readTree(fs.Arg(0), *format)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	if err := sch.Validate(node); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			for _, is := range verr.Issues {
				if is.Path == "" {
					fmt.Fprintf(os.Stderr, "  %s\n", is.Msg)
				} else {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", is.Path, is.Msg)
				}
			}
		}
		return fmt.Errorf("validate: %s does not conform to %s", fs.Arg(0), path)
	}
	fmt.Printf("%s conforms to %s\n", fs.Arg(0), path)
	return nil
}
