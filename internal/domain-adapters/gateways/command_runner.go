package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// CommandRunner runs external tools with a deadline and captured output
type CommandRunner struct {
	defaultTimeout time.Duration
}

// NewCommandRunner creates a new command runner
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		defaultTimeout: 30 * time.Second,
	}
}

// CommandConfig describes one tool invocation
type CommandConfig struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// CommandResult contains the result of a tool invocation
type CommandResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	NotFound bool // the executable could not be located or started
	TimedOut bool
	Error    error
}

// Run executes the command and waits for it, killing it when the timeout expires
func (cr *CommandRunner) Run(ctx context.Context, config CommandConfig) *CommandResult {
	startTime := time.Now()
	result := &CommandResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = cr.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Tool path and arguments come from operator configuration
	cmd := exec.CommandContext(execCtx, config.Name, config.Args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		result.ExitCode = -1
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
			result.Error = fmt.Errorf("%s timed out after %v", config.Name, timeout)
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.NotFound = true
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}
