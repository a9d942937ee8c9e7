package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain/entities"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Analyze every regular file under a directory",
		ArgsUsage: "<directory>",
		Flags: append(analysisFlags(),
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "Maximum files analyzed concurrently",
			},
		),
		Action: batchAction,
	}
}

func batchAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("batch requires exactly one directory", exitUsage)
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	if c.IsSet("parallel") {
		s.config.Batch.Parallel = c.Int("parallel")
	}

	db, err := s.loadSignatures(c.Context)
	if err != nil {
		return err
	}
	sink, err := s.newSink(c.Context)
	if err != nil {
		return err
	}
	defer s.close(sink)

	batch, err := s.newOrchestrator(db, sink).AnalyzeDirectory(c.Context, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	if err := s.renderer.Reports(batch.Reports()); err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}

	if batch.Failed == 0 {
		return nil
	}

	code := exitUsage
	messages := make([]string, 0, batch.Failed)
	for _, r := range batch.Results {
		if r.Err == nil {
			continue
		}
		messages = append(messages, fmt.Sprintf("%s: %v", r.Path, r.Err))
		if errors.Is(r.Err, entities.ErrSinkFailure) {
			code = exitSink
		}
	}
	messages = append(messages, fmt.Sprintf("%d of %d files failed", batch.Failed, len(batch.Results)))
	return cli.Exit(strings.Join(messages, "\n"), code)
}
