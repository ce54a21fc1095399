package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
	"github.com/ironsheep/symbol-segmenter/internal/config"
	"github.com/ironsheep/symbol-segmenter/internal/imaging"
	"github.com/ironsheep/symbol-segmenter/internal/logging"
	"github.com/ironsheep/symbol-segmenter/internal/pipeline"
	"github.com/ironsheep/symbol-segmenter/internal/server"
)

// segment processes one image. The image is loaded before the classifier so
// a bad path is reported even where no classifier backend is installed.
func (a *App) segment(ctx context.Context, args []string) int {
	cfg, positional, f, log, err := a.setup("segment", args)
	if err != nil {
		if isHelp(err) {
			a.printUsage()
			return ExitOK
		}
		return a.fail(err)
	}

	if len(positional) == 0 {
		return a.fail(pipeline.MissingArgument())
	}
	if len(positional) > 1 {
		return a.fail(fmt.Errorf("expected one image path, got %d", len(positional)))
	}
	path := positional[0]

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return a.fail(err)
	}

	img, err := imaging.Load(path)
	if err != nil {
		return a.fail(err)
	}
	log.Debug().Str("path", path).Interface("image", imaging.Describe(img)).Msg("loaded")

	if f.dumpMask != "" {
		if err := imaging.SaveMask(imaging.Binarize(img, opts.Binarize), f.dumpMask); err != nil {
			return a.fail(err)
		}
	}

	c, err := newClassifier(cfg, log)
	if err != nil {
		return a.fail(err)
	}
	defer c.Close()

	res, err := pipeline.New(c, opts, log).Process(ctx, img)
	if err != nil {
		return a.fail(err)
	}
	if err := a.writeResult(res); err != nil {
		return a.fail(err)
	}
	return ExitOK
}

// batch processes every image argument and exits 1 if any of them failed.
func (a *App) batch(ctx context.Context, args []string) int {
	cfg, paths, _, log, err := a.setup("batch", args)
	if err != nil {
		if isHelp(err) {
			a.printUsage()
			return ExitOK
		}
		return a.fail(err)
	}
	if len(paths) == 0 {
		return a.fail(pipeline.MissingArgument())
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return a.fail(err)
	}
	c, err := newClassifier(cfg, log)
	if err != nil {
		return a.fail(err)
	}
	defer c.Close()

	items, err := pipeline.New(c, opts, log).ProcessBatch(ctx, paths, cfg.Batch.Workers)
	if err != nil {
		return a.fail(err)
	}
	if err := pipeline.WriteBatch(a.Stdout, items); err != nil {
		return a.fail(err)
	}

	for _, item := range items {
		if item.Failed() {
			return ExitError
		}
	}
	return ExitOK
}

// serve runs the MCP server on the app's standard streams.
func (a *App) serve(ctx context.Context, args []string) int {
	cfg, positional, _, log, err := a.setup("serve", args)
	if err != nil {
		if isHelp(err) {
			a.printUsage()
			return ExitOK
		}
		return a.fail(err)
	}
	if len(positional) > 0 {
		return a.fail(fmt.Errorf("serve takes no arguments, got %q", positional[0]))
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return a.fail(err)
	}
	c, err := newClassifier(cfg, log)
	if err != nil {
		return a.fail(err)
	}
	defer c.Close()

	log.Info().Str("version", a.Version).Str("build_time", a.BuildTime).Str("commit", a.GitCommit).Msg("starting server")
	if err := server.New(c, opts, a.Version, log).Run(ctx, a.Stdin, a.Stdout); err != nil {
		return a.fail(err)
	}
	return ExitOK
}

// showConfig prints the effective configuration as YAML, or saves it with
// --write.
func (a *App) showConfig(args []string) int {
	cfg, _, f, log, err := a.setup("config", args)
	if err != nil {
		if isHelp(err) {
			a.printUsage()
			return ExitOK
		}
		return a.fail(err)
	}
	if f.writePath != "" {
		if err := cfg.Write(f.writePath); err != nil {
			return a.fail(err)
		}
		log.Info().Str("path", f.writePath).Msg("configuration written")
		return ExitOK
	}
	data, err := cfg.Marshal()
	if err != nil {
		return a.fail(err)
	}
	if _, err := a.Stdout.Write(data); err != nil {
		return a.fail(err)
	}
	return ExitOK
}

func newClassifier(cfg *config.Config, log zerolog.Logger) (classify.Classifier, error) {
	return classify.New(cfg.ClassifierOptions(logging.Collaborator(log, "classifier")))
}
