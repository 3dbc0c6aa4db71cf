package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/sharedptr/resource"
	"github.com/wippyai/sharedptr/shared"
	"github.com/wippyai/sharedptr/wasmshare"
)

func main() {
	var (
		copies      = flag.Int("copies", 2, "Extra owners to create in the shared scenario")
		verbose     = flag.Bool("v", false, "Log handle lifecycle to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *copies < 0 {
		fmt.Fprintln(os.Stderr, "Usage: sharedemo [-copies n] [-v] [-i]")
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		shared.SetLogger(log.Named("shared"))
		resource.SetLogger(log.Named("resource"))
		wasmshare.SetLogger(log.Named("wasmshare"))
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, *copies); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, copies int) error {
	fmt.Fprintln(out, "== single owner")
	{
		h, err := shared.MakeAs[Base](NewDerived(out, "solo"))
		if err != nil {
			return fmt.Errorf("make: %w", err)
		}
		fmt.Fprintf(out, "%s use_count=%d\n", h.Get().Name(), h.UseCount())
		h.Release()
	}

	fmt.Fprintln(out, "\n== shared owners")
	{
		h, err := shared.MakeAs[Base](NewDerived(out, "group"))
		if err != nil {
			return fmt.Errorf("make: %w", err)
		}

		owners := []*shared.Handle[Base]{h}
		for i := 0; i < copies; i++ {
			owners = append(owners, h.Clone())
		}
		fmt.Fprintf(out, "use_count=%d\n", h.UseCount())

		for i := len(owners) - 1; i >= 0; i-- {
			fmt.Fprintf(out, "release owner %d (use_count=%d)\n", i, owners[i].UseCount())
			owners[i].Release()
		}
	}

	fmt.Fprintln(out, "\n== resource table")
	{
		table := resource.NewTable[Base]()

		h, err := shared.MakeAs[Base](NewDerived(out, "stream"))
		if err != nil {
			return fmt.Errorf("make: %w", err)
		}
		slot, err := table.Insert(resource.WASIInputStream, h)
		if err != nil {
			h.Release()
			return fmt.Errorf("insert: %w", err)
		}
		h.Release()
		fmt.Fprintf(out, "slot %d use_count=%d\n", slot, table.UseCount(slot))

		if err := table.Close(); err != nil {
			return fmt.Errorf("close table: %w", err)
		}
	}

	return nil
}
