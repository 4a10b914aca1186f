package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/mira/config"
	"github.com/chazu/mira/store"
)

// runStore reads and writes documents in the configured store.
func runStore(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	backend := fs.String("backend", "", "Store backend: bolt, sqlite (default: from mira.toml)")
	path := fs.String("path", "", "Store file (default: from mira.toml)")
	format := fs.String("format", "", "Document format: json, msgpack, cbor")
	indent := fs.Int("indent", 2, "Indent width for JSON output (0 = compact)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mira store [options] <get|put|list|delete> [args]\n\n")
		fmt.Fprintf(os.Stderr, "  get NAME        Print the named document\n")
		fmt.Fprintf(os.Stderr, "  put NAME FILE   Store a document (\"-\" reads stdin)\n")
		fmt.Fprintf(os.Stderr, "  list            List stored documents\n")
		fmt.Fprintf(os.Stderr, "  delete NAME     Remove the named document\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("store: expected a subcommand")
	}

	be := *backend
	if be == "" {
		be = cfg.Store.Backend
	}
	p := *path
	if p == "" {
		p = cfg.StorePath()
	}
	st, err := store.Open(be, p)
	if err != nil {
		return err
	}
	defer st.Close()

	rest := fs.Args()[1:]
	switch fs.Arg(0) {
	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("store get: expected NAME")
		}
		node, rev, err := st.Get(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "revision %s\n", rev)
		outFormat := *format
		if outFormat == "" {
			outFormat = formatJSON
		}
		return writeTree("-", outFormat, *indent, node)

	case "put":
		if len(rest) != 2 {
			return fmt.Errorf("store put: expected NAME FILE")
		}
		node, err := readTree(rest[1], *format)
		if err != nil {
			return err
		}
		rev, err := st.Put(rest[0], node)
		if err != nil {
			return err
		}
		fmt.Printf("%s revision %s\n", rest[0], rev)
		return nil

	case "list":
		docs, err := st.List()
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%-30s %s  %s\n", d.Name, d.SavedAt.Format("2006-01-02 15:04:05"), d.Rev)
		}
		return nil

	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("store delete: expected NAME")
		}
		return st.Delete(rest[0])

	default:
		fs.Usage()
		return fmt.Errorf("store: unknown subcommand %q", fs.Arg(0))
	}
}
