package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain-adapters/gateways"
	"github.com/ochairo/specimen/internal/domain/entities"
)

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Score the ssdeep similarity of two files",
		ArgsUsage: "<file> <file>",
		Flags:     outputFlags(),
		Action:    compareAction,
	}
}

func compareAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("compare requires exactly two files", exitUsage)
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close(nil)

	result, err := compareFiles(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	if err := s.renderer.Similarity(result); err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}
	return nil
}

// compareFiles fingerprints both files; Score is -1 only when either is too large to fuzzy-hash
func compareFiles(left, right string) (*entities.SimilarityResult, error) {
	engine := gateways.NewFingerprintEngine()

	fingerprint := func(path string) (entities.FingerprintSet, error) {
		//nolint:gosec // G304: path is an operator-provided artifact
		data, err := os.ReadFile(path)
		if err != nil {
			return entities.FingerprintSet{}, fmt.Errorf("%w: %w", entities.ErrIOFailure, err)
		}
		return engine.Fingerprint(data), nil
	}

	l, err := fingerprint(left)
	if err != nil {
		return nil, err
	}
	r, err := fingerprint(right)
	if err != nil {
		return nil, err
	}

	result := &entities.SimilarityResult{
		Left:      left,
		Right:     right,
		LeftHash:  l.SSDeep,
		RightHash: r.SSDeep,
		Score:     -1,
		Identical: l.SHA256 == r.SHA256,
	}
	if l.SSDeep == "" || r.SSDeep == "" {
		return result, nil
	}

	score, err := engine.FuzzyDistance(l.SSDeep, r.SSDeep)
	if err != nil {
		return nil, err
	}
	result.Score = score
	return result, nil
}
