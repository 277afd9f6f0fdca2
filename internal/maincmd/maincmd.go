// Package maincmd implements the ember command-line surface: reading a
// script file or driving an interactive REPL, on top of the compiler and vm
// packages.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "ember"

// Exit codes follow the language's external interface contract: usage
// errors exit 64, compile errors 65, runtime errors 70.
const (
	exitUsage   mainer.ExitCode = 64
	exitCompile mainer.ExitCode = 65
	exitRuntime mainer.ExitCode = 70
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the Ember scripting language.

With no <path>, starts an interactive REPL reading from stdin. With one
<path>, compiles and runs that file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the root command, populated from argv by mainer.Parser (environment
// variables are not read for flags).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("too many arguments")
	}
	return nil
}

// Main is the entry point invoked by cmd/ember's main function.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		return runRepl(ctx, stdio)
	}
	return runFile(ctx, stdio, c.args[0])
}
