package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/mna/mainer"

	"github.com/mna/embervm/internal/config"
	"github.com/mna/embervm/lang/compiler"
	"github.com/mna/embervm/lang/vm"
)

const prompt = "> "

// runRepl reads lines from stdin, compiling and running each independently
// against a VM whose globals persist across lines. "exit" or EOF terminates
// with success.
func runRepl(_ context.Context, stdio mainer.Stdio) mainer.ExitCode {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitUsage
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       ".ember-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             io.NopCloser(stdio.Stdin),
		Stdout:            stdio.Stdout,
		Stderr:            stdio.Stderr,
	})
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitUsage
	}
	defer rl.Close()

	m := vm.New(vm.WithLimits(cfg.MaxFrames, cfg.StackPerFrame))
	m.Stdout = stdio.Stdout
	m.Stderr = stdio.Stderr

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return mainer.Success
		}
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
			return exitUsage
		}
		if line == "exit" {
			return mainer.Success
		}
		if line == "" {
			continue
		}

		fn, err := compiler.Compile(line)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if err := m.Run(fn); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
	}
}
