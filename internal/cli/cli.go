// Package cli implements the symseg command line.
//
// Results are written to the result stream as a single JSON object (one line
// per image in batch mode). Failures are written to the diagnostic stream as
// {"error": "<message>"} with exit status 1, and nothing is written to the
// result stream.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/symbol-segmenter/internal/pipeline"
)

// Exit statuses.
const (
	ExitOK    = 0
	ExitError = 1
)

// App is one configured command line. The zero value is not usable; fill in
// the streams or call Run.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Getenv looks up environment variables. nil disables environment
	// overrides.
	Getenv func(string) string

	Version   string
	BuildTime string
	GitCommit string
}

// Run executes args (without the program name) against the process's
// standard input and environment.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{
		Stdin:   os.Stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		Getenv:  os.Getenv,
		Version: "dev",
	}
	return app.Run(ctx, args)
}

// Run dispatches to a subcommand. The first argument selects it; anything
// else is treated as arguments to "segment".
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			a.printVersion()
			return ExitOK
		case "--help", "-h", "help":
			a.printUsage()
			return ExitOK
		case "segment":
			return a.segment(ctx, args[1:])
		case "batch":
			return a.batch(ctx, args[1:])
		case "serve":
			return a.serve(ctx, args[1:])
		case "config":
			return a.showConfig(args[1:])
		}
	}
	return a.segment(ctx, args)
}

// fail reports err on the diagnostic stream and returns ExitError.
func (a *App) fail(err error) int {
	pe := pipeline.Classify(err)
	enc := json.NewEncoder(a.Stderr)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]string{"error": pe.Msg})
	return ExitError
}

// writeResult writes v as one JSON line on the result stream.
func (a *App) writeResult(v interface{}) error {
	enc := json.NewEncoder(a.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *App) printVersion() {
	fmt.Fprintf(a.Stdout, "symseg %s\n", a.Version)
	if a.BuildTime != "" {
		fmt.Fprintf(a.Stdout, "  Build time: %s\n", a.BuildTime)
	}
	if a.GitCommit != "" {
		fmt.Fprintf(a.Stdout, "  Git commit: %s\n", a.GitCommit)
	}
}

func (a *App) printUsage() {
	fmt.Fprint(a.Stdout, `symseg - segment and classify math symbols in an image

Usage:
  symseg [segment] [options] <image>     Print the symbols of one image
  symseg batch [options] <image>...      One JSON line per image
  symseg serve [options]                 MCP server over stdin/stdout
  symseg config [options]                Print the effective configuration
  symseg version                         Print version information

Options:
  --config <file>       YAML configuration file
  --preset <name>       adaptive (default) or simple
  --classifier <name>   tesseract (default) or random
  --seed <n>            Seed for the random classifier
  --tessdata <dir>      Tesseract language data directory
  --log-level <level>   debug, info, warn (default), error or disabled
  --log-format <fmt>    json (default) or console
  --evaluate            Also evaluate the symbols as an expression
  --min-confidence <p>  Drop predictions scored below p, 0-1 (default 0)
  --dump-mask <file>    Write the binarized mask (segment only)
  --workers <n>         Images processed at once (batch only)
  --write <file>        Save the configuration instead of printing it (config only)

Environment variables:
  SYMSEG_LOG_LEVEL, SYMSEG_CLASSIFIER, SYMSEG_TESSDATA_PREFIX
`)
}
