package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gruppe-adler/meh-slope/internal/info"
	"github.com/gruppe-adler/meh-slope/internal/preview"
	"github.com/gruppe-adler/meh-slope/internal/slopemap"
)

type command struct {
	name        string
	description string
	run         func(*flag.FlagSet)
}

var subCommands []command

func init() {
	subCommands = []command{
		{"slopemap", "Build slope map, previews and tiles from a DEM.", slopemap.Run},
		{"info", "Print grid stats and device partitioning of a DEM.", info.Run},
		{"preview", "Build resolutions for preview image.", preview.Run},
		{"help", "Print this message.", func(*flag.FlagSet) { printUsage(os.Stdout) }},
	}
}

// lookup finds a subcommand by name.
func lookup(name string) (command, bool) {
	for _, c := range subCommands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "USAGE:\n    %s [SUBCOMMAND] [SUBCOMMAND FLAGS]\n\n", os.Args[0])
	fmt.Fprint(w, "SUBCOMMANDS:\n")

	for _, c := range subCommands {
		fmt.Fprintf(w, "%12s    %s\n", c.name, c.description)
	}

	fmt.Fprintf(w, "\nUse -h as SUBCOMMAND FLAG to print help for each subcommand.\n\n")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\nERROR: "+format+"\n\n", args...)
	printUsage(os.Stderr)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		fail("No subcommand was provided.")
	}

	c, ok := lookup(os.Args[1])
	if !ok {
		fail("Subcommand '%s' was not found.", os.Args[1])
	}

	c.run(flag.NewFlagSet(c.name, flag.ExitOnError))
}
