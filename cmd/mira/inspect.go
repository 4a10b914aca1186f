package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/mira/tree"
)

// runInspect renders a binding-graph dump written by an application
// (binding.Inspector.Dump serialized through any codec).
func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	format := fs.String("format", "", "Dump format: json, msgpack, cbor (default: by extension)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mira inspect [options] <dump-file>\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("inspect: expected one dump file, got %d", fs.NArg())
	}

	node, err := readTree(fs.Arg(0), *format)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	regions, ok := node.Get("regions")
	if !ok {
		return fmt.Errorf("inspect: %s is not a binding-graph dump (no regions)", fs.Arg(0))
	}

	regionCount, _ := mustInt(node, "regionCount")
	edgeCount, _ := mustInt(node, "edgeCount")
	fmt.Printf("%d region(s), %d connection(s)\n", regionCount, edgeCount)

	for i := 0; i < regions.Len(); i++ {
		rn := regions.At(i)
		rng, _ := stringAt(rn, "range")
		fmt.Printf("\nregion %s", rng)
		if st, ok := rn.Get("static"); ok {
			if b, _ := st.AsBool(); b {
				fmt.Printf(" (static)")
			}
		}
		if alive, ok := rn.Get("alive"); ok {
			if b, _ := alive.AsBool(); !b {
				fmt.Printf(" (dead)")
			}
		}
		if sch, ok := stringAt(rn, "scheduler"); ok {
			fmt.Printf(" scheduler=%s", sch)
		}
		fmt.Println()

		edges, ok := rn.Get("edges")
		if !ok {
			continue
		}
		for j := 0; j < edges.Len(); j++ {
			en := edges.At(j)
			handle, _ := mustInt(en, "handle")
			mode, _ := stringAt(en, "mode")
			dest, _ := stringAt(en, "dest")
			var srcs []string
			if sn, ok := en.Get("sources"); ok {
				for k := 0; k < sn.Len(); k++ {
					if s, ok := sn.At(k).AsString(); ok {
						srcs = append(srcs, s)
					}
				}
			}
			fmt.Printf("  #%d %s -> %s (%s)", handle, strings.Join(srcs, ","), dest, mode)
			if d, ok := stringAt(en, "srcDesc"); ok {
				fmt.Printf("  src=%s", d)
			}
			if d, ok := stringAt(en, "dstDesc"); ok {
				fmt.Printf("  dst=%s", d)
			}
			fmt.Println()
		}
	}
	return nil
}

func mustInt(n *tree.Node, key string) (int64, bool) {
	c, ok := n.Get(key)
	if !ok {
		return 0, false
	}
	return c.AsInt()
}

func stringAt(n *tree.Node, key string) (string, bool) {
	c, ok := n.Get(key)
	if !ok {
		return "", false
	}
	return c.AsString()
}
