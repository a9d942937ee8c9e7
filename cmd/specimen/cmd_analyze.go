package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain/entities"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze one or more files",
		ArgsUsage: "<file> [file...]",
		Flags:     analysisFlags(),
		Action:    analyzeAction,
	}
}

func analyzeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("analyze requires at least one file", exitUsage)
	}

	s, err := newSession(c)
	if err != nil {
		return err
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

	orchestrator := s.newOrchestrator(db, sink)

	var (
		reports  []*entities.AnalysisReport
		exitCode int
		messages []string
	)
	for _, path := range c.Args().Slice() {
		report, err := orchestrator.AnalyzeFile(c.Context, path)
		if report != nil {
			reports = append(reports, report)
		}
		if err == nil {
			continue
		}

		messages = append(messages, fmt.Sprintf("%s: %v", path, err))
		code := exitUsage
		if errors.Is(err, entities.ErrSinkFailure) {
			code = exitSink
		}
		if code > exitCode {
			exitCode = code
		}
	}

	if len(reports) == 1 && c.NArg() == 1 {
		err = s.renderer.Report(reports[0])
	} else if len(reports) > 0 {
		err = s.renderer.Reports(reports)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}

	if exitCode != 0 {
		return cli.Exit(strings.Join(messages, "\n"), exitCode)
	}
	return nil
}
