package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/advisor"
	"github.com/abhisek/skillprobe/internal/config"
	"github.com/abhisek/skillprobe/internal/evaluate"
	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/sandbox"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/similarity"
	"github.com/abhisek/skillprobe/internal/store"
	"github.com/abhisek/skillprobe/internal/topics"
)

// loadConfig reads the config file named by --config and applies the
// --db and --log-level overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		if _, err := config.ParseLogLevel(lvl); err != nil {
			return nil, err
		}
		cfg.LogLevel = lvl
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DB = db
	}
	return cfg, nil
}

// services holds everything a session needs, built once per command.
type services struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	deps   session.Deps

	closers []func() error
}

// buildServices wires config, journal, LLM provider, scorers and sandbox
// into session dependencies. defaultLog receives logs unless --log-file
// is set.
func buildServices(cmd *cobra.Command, defaultLog io.Writer) (*services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	svc := &services{cfg: cfg}

	logOut := defaultLog
	if p, _ := cmd.Flags().GetString("log-file"); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		svc.closers = append(svc.closers, f.Close)
		logOut = f
	}
	svc.logger = cfg.NewLogger(logOut)

	if err := svc.wire(cmd); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *services) wire(cmd *cobra.Command) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	s.store = st
	s.closers = append(s.closers, st.Close)
	journal := st.EventRepo()

	llmCfg, err := llm.ResolveConfig()
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	provider, err := llm.NewProvider(cmd.Context(), llmCfg, journal, s.logger)
	if err != nil {
		return err
	}

	scorer, err := s.similarityScorer(llmCfg, provider)
	if err != nil {
		return err
	}
	runner, err := s.codeSandbox()
	if err != nil {
		return err
	}

	var adv planner.Advisor
	if s.cfg.Advisor.Enabled {
		adv = advisor.New(provider)
	}
	plannerCfg, err := s.cfg.Planner()
	if err != nil {
		return err
	}

	limits, err := s.cfg.TimeLimits()
	if err != nil {
		return err
	}
	genCfg := questiongen.DefaultConfig()
	genCfg.TimeLimits = limits

	s.deps = session.Deps{
		Decomposer: topics.NewLLMDecomposer(provider),
		Generator:  questiongen.New(provider, genCfg),
		Planner:    planner.New(plannerCfg, adv, s.logger),
		Evaluator: &evaluate.Evaluator{
			Similarity: scorer,
			Sandbox:    runner,
			Policy:     s.cfg.ShortAnswerPolicy(),
		},
		Journal: journal,
		Logger:  s.logger,
	}
	s.logger.Debug("services ready",
		"provider", llmCfg.Provider,
		"similarity", s.cfg.Scoring.Similarity,
		"sandbox", s.cfg.Sandbox.Backend,
		"advisor", s.cfg.Advisor.Enabled,
	)
	return nil
}

func (s *services) similarityScorer(llmCfg llm.Config, provider llm.Provider) (evaluate.SimilarityScorer, error) {
	switch s.cfg.Scoring.Similarity {
	case config.SimilarityEmbedding:
		e, err := llm.NewEmbedder(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("scoring.similarity: %w", err)
		}
		return similarity.NewEmbeddingScorer(e), nil
	case config.SimilarityLexical:
		return similarity.LexicalScorer{}, nil
	}
	return similarity.NewLLMScorer(provider), nil
}

// codeSandbox returns nil for the "none" backend; coding answers then fail
// to score and can be skipped.
func (s *services) codeSandbox() (evaluate.CodeSandbox, error) {
	switch s.cfg.Sandbox.Backend {
	case config.SandboxDocker:
		sb, err := sandbox.NewDockerSandbox(s.cfg.SandboxSettings(), s.logger)
		if err != nil {
			return nil, fmt.Errorf("docker sandbox: %w", err)
		}
		s.closers = append(s.closers, sb.Close)
		return sb, nil
	case config.SandboxLocal:
		return sandbox.NewLocalSandbox(s.cfg.SandboxSettings()), nil
	}
	return nil, nil
}

// Close releases resources in reverse order of acquisition.
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
