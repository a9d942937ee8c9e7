package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// versionResponse is the response for the version command
type versionResponse struct {
	Version string `json:"version" yaml:"version" msgpack:"version"`
	Commit  string `json:"commit" yaml:"commit" msgpack:"commit"`
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  outputFlags(),
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close(nil)

	if err := s.renderer.Value(versionResponse{Version: version, Commit: commit}); err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}
	return nil
}
