// Package config loads skillprobe settings from a YAML file, applies
// SKILLPROBE_* environment overrides and converts the result into the
// settings each component takes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/skillprobe/internal/evaluate"
	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/sandbox"
)

// Similarity backends.
const (
	SimilarityLLM       = "llm"
	SimilarityEmbedding = "embedding"
	SimilarityLexical   = "lexical"
)

// Sandbox backends.
const (
	SandboxDocker = "docker"
	SandboxLocal  = "local"
	SandboxNone   = "none"
)

// Config is the full skillprobe configuration.
type Config struct {
	Assessment AssessmentConfig `yaml:"assessment"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Advisor    AdvisorConfig    `yaml:"advisor"`
	Server     ServerConfig     `yaml:"server"`
	LogLevel   string           `yaml:"log_level"`

	// DB is the journal path. Empty means the store's default location.
	DB string `yaml:"db"`
}

// AssessmentConfig holds session budget and planning settings.
type AssessmentConfig struct {
	MaxQuestions       int `yaml:"max_questions"`
	MaxTagsPerQuestion int `yaml:"max_tags_per_question"`

	// Distribution and TimeLimits are keyed by question type; short forms
	// such as "mcq", "short" and "code" are accepted.
	Distribution map[string]float64 `yaml:"distribution"`
	TimeLimits   map[string]int     `yaml:"time_limits"`
}

// ScoringConfig holds answer evaluation settings.
type ScoringConfig struct {
	ShortAnswerPolicy string  `yaml:"short_answer_policy"`
	Threshold         float64 `yaml:"threshold"`
	Similarity        string  `yaml:"similarity"`
}

// SandboxConfig holds code execution settings.
type SandboxConfig struct {
	Backend            string  `yaml:"backend"`
	Image              string  `yaml:"image"`
	MemoryMB           int     `yaml:"memory_mb"`
	CPULimit           float64 `yaml:"cpu_limit"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	CaseTimeoutSeconds int     `yaml:"case_timeout_seconds"`
	Python             string  `yaml:"python"`
}

// AdvisorConfig toggles the LLM next-question advisor.
type AdvisorConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// SessionIdleMinutes is how long an untouched session is kept; zero
	// keeps sessions until they are deleted.
	SessionIdleMinutes int `yaml:"session_idle_minutes"`
}

// SessionIdle returns the idle timeout for API sessions.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

// Default returns the built-in configuration.
func Default() *Config {
	sb := sandbox.DefaultConfig()
	return &Config{
		Assessment: AssessmentConfig{
			MaxQuestions:       10,
			MaxTagsPerQuestion: 2,
			Distribution: map[string]float64{
				"mcq":    0.5,
				"short":  0.3,
				"coding": 0.2,
			},
			TimeLimits: map[string]int{
				"mcq":    60,
				"short":  120,
				"coding": 600,
			},
		},
		Scoring: ScoringConfig{
			ShortAnswerPolicy: string(evaluate.PolicyContinuous),
			Threshold:         0.5,
			Similarity:        SimilarityLLM,
		},
		Sandbox: SandboxConfig{
			Backend:            SandboxDocker,
			Image:              sb.Image,
			MemoryMB:           sb.MemoryMB,
			CPULimit:           sb.CPULimit,
			TimeoutSeconds:     int(sb.Timeout / time.Second),
			CaseTimeoutSeconds: int(sb.CaseTimeout / time.Second),
			Python:             sb.Python,
		},
		Advisor:  AdvisorConfig{Enabled: true},
		Server:   ServerConfig{Addr: "127.0.0.1:8080", SessionIdleMinutes: 60},
		LogLevel: "info",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/skillprobe/config.yaml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "skillprobe", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "skillprobe", "config.yaml"), nil
}

// Load reads the configuration at path. An empty path reads the default
// location, where a missing file yields the defaults; an explicit path must
// exist. Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// yaml.v3 merges into existing maps; a file that sets these
		// replaces them wholesale.
		defaults := cfg.Assessment
		cfg.Assessment.Distribution = nil
		cfg.Assessment.TimeLimits = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.Assessment.Distribution == nil {
			cfg.Assessment.Distribution = defaults.Distribution
		}
		if cfg.Assessment.TimeLimits == nil {
			cfg.Assessment.TimeLimits = defaults.TimeLimits
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SKILLPROBE_MAX_QUESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKILLPROBE_MAX_QUESTIONS: %w", err)
		}
		c.Assessment.MaxQuestions = n
	}
	if v := getenv("SKILLPROBE_ADVISOR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SKILLPROBE_ADVISOR: %w", err)
		}
		c.Advisor.Enabled = b
	}

	strs := []struct {
		env string
		dst *string
	}{
		{"SKILLPROBE_SANDBOX", &c.Sandbox.Backend},
		{"SKILLPROBE_SANDBOX_IMAGE", &c.Sandbox.Image},
		{"SKILLPROBE_SIMILARITY", &c.Scoring.Similarity},
		{"SKILLPROBE_SHORT_ANSWER_POLICY", &c.Scoring.ShortAnswerPolicy},
		{"SKILLPROBE_LOG_LEVEL", &c.LogLevel},
		{"SKILLPROBE_DB", &c.DB},
		{"SKILLPROBE_ADDR", &c.Server.Addr},
	}
	for _, s := range strs {
		if v := getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	return nil
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if c.Assessment.MaxQuestions < 1 {
		return fmt.Errorf("assessment.max_questions must be at least 1, got %d", c.Assessment.MaxQuestions)
	}
	if c.Server.SessionIdleMinutes < 0 {
		return fmt.Errorf("server.session_idle_minutes must not be negative, got %d", c.Server.SessionIdleMinutes)
	}
	if c.Assessment.MaxTagsPerQuestion < 1 {
		return fmt.Errorf("assessment.max_tags_per_question must be at least 1, got %d", c.Assessment.MaxTagsPerQuestion)
	}
	if _, err := c.Planner(); err != nil {
		return err
	}
	if _, err := c.TimeLimits(); err != nil {
		return err
	}

	switch evaluate.PolicyMode(c.Scoring.ShortAnswerPolicy) {
	case evaluate.PolicyContinuous, evaluate.PolicyThreshold:
	default:
		return fmt.Errorf("scoring.short_answer_policy must be continuous or threshold, got %q", c.Scoring.ShortAnswerPolicy)
	}
	if c.Scoring.Threshold < 0 || c.Scoring.Threshold > 1 {
		return fmt.Errorf("scoring.threshold must be within [0,1], got %v", c.Scoring.Threshold)
	}
	switch c.Scoring.Similarity {
	case SimilarityLLM, SimilarityEmbedding, SimilarityLexical:
	default:
		return fmt.Errorf("scoring.similarity must be llm, embedding or lexical, got %q", c.Scoring.Similarity)
	}

	switch c.Sandbox.Backend {
	case SandboxDocker, SandboxLocal, SandboxNone:
	default:
		return fmt.Errorf("sandbox.backend must be docker, local or none, got %q", c.Sandbox.Backend)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Planner converts the assessment section into planner settings.
func (c *Config) Planner() (planner.Config, error) {
	dist := make(planner.Distribution, len(c.Assessment.Distribution))
	for k, v := range c.Assessment.Distribution {
		t, err := question.ParseType(k)
		if err != nil {
			return planner.Config{}, fmt.Errorf("assessment.distribution: %w", err)
		}
		dist[t] += v
	}
	if err := dist.Validate(); err != nil {
		return planner.Config{}, fmt.Errorf("assessment.distribution: %w", err)
	}
	return planner.Config{
		Distribution: dist,
		MaxTags:      c.Assessment.MaxTagsPerQuestion,
	}, nil
}

// TimeLimits converts the per-type time limits, in seconds. Types the
// file leaves out keep their default.
func (c *Config) TimeLimits() (map[question.Type]int, error) {
	out := make(map[question.Type]int, len(question.Types))
	for k, v := range Default().Assessment.TimeLimits {
		t, _ := question.ParseType(k)
		out[t] = v
	}
	for k, v := range c.Assessment.TimeLimits {
		t, err := question.ParseType(k)
		if err != nil {
			return nil, fmt.Errorf("assessment.time_limits: %w", err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("assessment.time_limits.%s must be positive, got %d", k, v)
		}
		out[t] = v
	}
	return out, nil
}

// ShortAnswerPolicy converts the scoring section into an evaluator policy.
func (c *Config) ShortAnswerPolicy() evaluate.ShortAnswerPolicy {
	return evaluate.ShortAnswerPolicy{
		Mode:      evaluate.PolicyMode(c.Scoring.ShortAnswerPolicy),
		Threshold: c.Scoring.Threshold,
	}
}

// SandboxSettings converts the sandbox section. Zero values take the
// sandbox package defaults.
func (c *Config) SandboxSettings() sandbox.Config {
	return sandbox.Config{
		Image:       strings.TrimSpace(c.Sandbox.Image),
		MemoryMB:    c.Sandbox.MemoryMB,
		CPULimit:    c.Sandbox.CPULimit,
		NetworkOff:  true,
		Timeout:     time.Duration(c.Sandbox.TimeoutSeconds) * time.Second,
		CaseTimeout: time.Duration(c.Sandbox.CaseTimeoutSeconds) * time.Second,
		Python:      c.Sandbox.Python,
	}
}
