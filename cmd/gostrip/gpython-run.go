package main

import (
	"fmt"
	"time"

	"github.com/2x3systems/gostrip/pystrip"
	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/plan-systems/klog"

	_ "github.com/go-python/gpython/stdlib"
)

// runPython runs the given script, or the interactive REPL when pathname is empty.
func runPython(pathname string) error {
	ctx := py.NewContext(py.DefaultContextOpts())
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)
		if err = pystrip.InitREPL(ctx, replCtx.Module); err == nil {
			cli.RunREPL(replCtx)
		}
	} else {
		startTime := time.Now()
		fmt.Printf("<<<>>>   executing '%s'   <<<>>>\n", pathname)

		if _, err = pystrip.RunScript(ctx, pathname, nil); err == nil {
			fmt.Printf("<<<>>>   execution complete: %v   <<<>>>\n", time.Since(startTime))
		}
	}

	if err != nil {
		py.TracebackDump(err)
		klog.Errorf("gpython: %v", err)
	}
	return err
}
