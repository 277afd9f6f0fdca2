package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/embervm/internal/config"
	"github.com/mna/embervm/lang/compiler"
	"github.com/mna/embervm/lang/vm"
)

func runFile(_ context.Context, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitUsage
	}

	fn, err := compiler.Compile(string(src))
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitCompile
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitUsage
	}

	m := vm.New(vm.WithLimits(cfg.MaxFrames, cfg.StackPerFrame))
	m.Stdout = stdio.Stdout
	m.Stderr = stdio.Stderr

	if err := m.Run(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitRuntime
	}
	return mainer.Success
}
