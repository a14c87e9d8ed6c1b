package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/abhisek/skillprobe/internal/question"
)

// LocalSandbox runs submissions with the host's Python interpreter in a
// throwaway directory. It offers no isolation and is meant for development.
type LocalSandbox struct {
	config Config
}

// NewLocalSandbox creates a local sandbox.
func NewLocalSandbox(cfg Config) *LocalSandbox {
	return &LocalSandbox{config: cfg.withDefaults()}
}

// Run writes the workspace to a temp dir and runs the harness there.
func (s *LocalSandbox) Run(ctx context.Context, code string, cases []question.TestCase) (Result, error) {
	files, err := workspaceFiles(code, cases)
	if err != nil {
		return Result{}, err
	}

	dir, err := os.MkdirTemp("", "skillprobe-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", name, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	args := harnessArgs(s.config.Python, s.config)
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("run harness: %w: %s", err, stderr.String())
	}
	return parseReport(stdout.String())
}
