package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ironsheep/symbol-segmenter/internal/config"
)

// commonFlags are accepted by every subcommand that runs the pipeline.
type commonFlags struct {
	configPath string
	preset     string
	classifier string
	seed       int64
	tessdata   string
	logLevel   string
	logFormat  string
	evaluate   bool
	minConf    float64
	dumpMask   string
	workers    int
	writePath  string
}

// newFlagSet registers the flags of a subcommand. Parse errors are reported
// by the caller, so the set itself prints nothing.
func newFlagSet(name string, f *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.preset, "preset", "", "adaptive or simple")
	fs.StringVar(&f.classifier, "classifier", "", "classifier backend")
	fs.Int64Var(&f.seed, "seed", 0, "random classifier seed")
	fs.StringVar(&f.tessdata, "tessdata", "", "Tesseract language data directory")
	fs.StringVar(&f.logLevel, "log-level", "", "log level")
	fs.StringVar(&f.logFormat, "log-format", "", "json or console")
	fs.BoolVar(&f.evaluate, "evaluate", false, "evaluate the symbols as an expression")
	fs.Float64Var(&f.minConf, "min-confidence", 0, "drop predictions scored below this (0-1)")

	switch name {
	case "segment":
		fs.StringVar(&f.dumpMask, "dump-mask", "", "write the binarized mask to this file")
	case "batch":
		fs.IntVar(&f.workers, "workers", 0, "images processed at once")
	case "config":
		fs.StringVar(&f.writePath, "write", "", "save the configuration to this file")
	}
	return fs
}

// parseInterleaved parses flags that may appear before, between or after the
// positional arguments, which the flag package alone does not allow.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// resolveConfig layers preset, file, environment and explicitly set flags.
func (a *App) resolveConfig(fs *flag.FlagSet, f *commonFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath, f.preset)
	} else {
		cfg, err = config.Preset(f.preset)
	}
	if err != nil {
		return nil, err
	}

	if a.Getenv != nil {
		cfg.ApplyEnv(a.Getenv)
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "classifier":
			cfg.Classifier.Name = f.classifier
		case "seed":
			cfg.Classifier.Seed = f.seed
		case "tessdata":
			cfg.Classifier.TessdataPrefix = f.tessdata
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-format":
			cfg.LogFormat = f.logFormat
		case "min-confidence":
			cfg.Classifier.MinConfidence = f.minConf
		case "evaluate":
			cfg.Evaluate = f.evaluate
		case "workers":
			cfg.Batch.Workers = f.workers
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup parses args and resolves the configuration and logger.
func (a *App) setup(name string, args []string) (*config.Config, []string, *commonFlags, zerolog.Logger, error) {
	f := &commonFlags{}
	fs := newFlagSet(name, f)
	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), err
	}

	cfg, err := a.resolveConfig(fs, f)
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), err
	}

	log, err := cfg.Logger(a.Stderr)
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), err
	}
	return cfg, positional, f, log, nil
}

// isHelp reports whether err is the flag package's request for usage.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
