package pystrip

import (
	"os"
	"path/filepath"

	"github.com/go-python/gpython/py"
)

// StartupEnv names the environment variable holding a script run in the REPL module before the first prompt.
const StartupEnv = "GOSTRIP_STARTUP"

// RunScript compiles and runs the python file at pathname.
// Relative and absolute pathnames are both resolved against the script's own dir, so the script's imports of
// neighboring .py files resolve as they would for the interpreter.
//
// inModule is passed to py.RunCode: nil runs the script as a new __main__.
func RunScript(ctx py.Context, pathname string, inModule interface{}) (*py.Module, error) {
	abs, err := filepath.Abs(pathname)
	if err != nil {
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	if _, err = os.Stat(abs); err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}

	opts := py.CompileOpts{
		CurDir: filepath.Dir(abs),
	}
	return py.RunFile(ctx, filepath.Base(abs), opts, inModule)
}

// InitREPL imports _pystrip into the given REPL module and then runs the script named by StartupEnv, if set.
// Names the startup script defines are visible at the prompt.
func InitREPL(ctx py.Context, module *py.Module) error {
	if _, err := py.RunSrc(ctx, "import _pystrip", "<startup>", module); err != nil {
		return err
	}

	startup := os.Getenv(StartupEnv)
	if len(startup) == 0 {
		return nil
	}
	_, err := RunScript(ctx, startup, module)
	return err
}
