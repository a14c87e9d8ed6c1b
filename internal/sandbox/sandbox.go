// Package sandbox runs submitted code against test cases and reports how
// many passed. Each case feeds its input on stdin and compares trimmed
// stdout with the expected output.
package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/skillprobe/internal/question"
)

//go:embed runner.py
var harness []byte

const (
	solutionFile = "solution.py"
	casesFile    = "cases.json"
	harnessFile  = "runner.py"
)

// ErrBadReport is returned when the harness output cannot be parsed.
var ErrBadReport = errors.New("sandbox produced an unreadable report")

// Result is the outcome of one sandbox run.
type Result struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

// Sandbox executes code against ordered test cases.
type Sandbox interface {
	Run(ctx context.Context, code string, cases []question.TestCase) (Result, error)
}

// Config holds sandbox settings shared by the backends.
type Config struct {
	Image       string
	MemoryMB    int
	CPULimit    float64
	NetworkOff  bool
	Timeout     time.Duration
	CaseTimeout time.Duration

	// Python is the interpreter used by LocalSandbox.
	Python string
}

// DefaultConfig returns defaults suitable for short exercises.
func DefaultConfig() Config {
	return Config{
		Image:       "python:3.12-alpine",
		MemoryMB:    256,
		CPULimit:    1.0,
		NetworkOff:  true,
		Timeout:     60 * time.Second,
		CaseTimeout: 5 * time.Second,
		Python:      "python3",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Image == "" {
		c.Image = d.Image
	}
	if c.MemoryMB <= 0 {
		c.MemoryMB = d.MemoryMB
	}
	if c.CPULimit <= 0 {
		c.CPULimit = d.CPULimit
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.CaseTimeout <= 0 {
		c.CaseTimeout = d.CaseTimeout
	}
	if c.Python == "" {
		c.Python = d.Python
	}
	return c
}

// workspaceFiles returns the files a run needs: the submission, the cases
// and the harness.
func workspaceFiles(code string, cases []question.TestCase) (map[string]string, error) {
	if cases == nil {
		cases = []question.TestCase{}
	}
	data, err := json.Marshal(cases)
	if err != nil {
		return nil, fmt.Errorf("encode test cases: %w", err)
	}
	return map[string]string{
		solutionFile: code,
		casesFile:    string(data),
		harnessFile:  string(harness),
	}, nil
}

func harnessArgs(python string, cfg Config) []string {
	return []string{python, harnessFile, fmt.Sprintf("%.1f", cfg.CaseTimeout.Seconds())}
}

// parseReport reads the harness's JSON report from the last non-empty line
// of stdout.
func parseReport(stdout string) (Result, error) {
	lines := bytes.Split(bytes.TrimSpace([]byte(stdout)), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) == 0 {
		return Result{}, fmt.Errorf("%w: empty output", ErrBadReport)
	}

	var res Result
	if err := json.Unmarshal(last, &res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadReport, err)
	}
	if res.Total < 0 || res.Passed < 0 || res.Passed > res.Total {
		return Result{}, fmt.Errorf("%w: %d passed of %d", ErrBadReport, res.Passed, res.Total)
	}
	return res, nil
}
