// Mira CLI - convert, validate, and store serialized state documents
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/mira/config"
	"github.com/chazu/mira/sched"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (0=quiet, 1=info, 2=debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mira [options] <command> [command options]\n\n")
		fmt.Fprintf(os.Stderr, "Works with serialized state documents in JSON, MessagePack, and CBOR.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  convert    Convert a document between formats\n")
		fmt.Fprintf(os.Stderr, "  validate   Validate a document against a CUE schema\n")
		fmt.Fprintf(os.Stderr, "  store      Read and write documents in the configured store\n")
		fmt.Fprintf(os.Stderr, "  inspect    Render a binding-graph dump\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mira convert -to msgpack prefs.json -o prefs.msgpack\n")
		fmt.Fprintf(os.Stderr, "  mira validate -schema prefs.cue prefs.json\n")
		fmt.Fprintf(os.Stderr, "  mira store put prefs prefs.json\n")
		fmt.Fprintf(os.Stderr, "  mira store list\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	v := *verbosity
	if v == 0 {
		v = cfg.Log.Verbosity
	}
	commonlog.Configure(v, nil)
	sched.SetWaitPoll(cfg.WaitPoll())

	switch args[0] {
	case "convert":
		err = runConvert(args[1:])
	case "validate":
		err = runValidate(cfg, args[1:])
	case "store":
		err = runStore(cfg, args[1:])
	case "inspect":
		err = runInspect(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
