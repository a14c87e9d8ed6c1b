package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/evaluate"
	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/similarity"
	"github.com/abhisek/skillprobe/internal/topics"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a topic (no database)",
	Long: `Generate and interactively answer questions of one type and difficulty.

This is a stateless developer tool: no journal, no beliefs, no session.
Useful for judging question quality and prompt changes.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("topic", "", "Topic to generate questions for (required)")
	previewCmd.Flags().StringSlice("tags", nil, "Subtopics to target (default: decompose the topic and use the first)")
	previewCmd.Flags().String("type", "mcq", "Question type: mcq, short or coding")
	previewCmd.Flags().String("difficulty", "medium", "Difficulty: easy, medium or hard")
	previewCmd.Flags().Int("count", 3, "Number of questions to generate")
	_ = previewCmd.MarkFlagRequired("topic")
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	typeVal, _ := cmd.Flags().GetString("type")
	diffVal, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")

	typ, err := question.ParseType(typeVal)
	if err != nil {
		return err
	}
	difficulty, err := question.ParseDifficulty(diffVal)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limits, err := cfg.TimeLimits()
	if err != nil {
		return err
	}

	// No EventSink: preview calls are not journaled.
	ctx := context.Background()
	llmCfg, err := llm.ResolveConfig()
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	provider, err := llm.NewProvider(ctx, llmCfg, nil, cfg.NewLogger(os.Stderr))
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	if len(tags) == 0 {
		d, err := topics.NewLLMDecomposer(provider).Decompose(ctx, topic)
		if err != nil {
			return fmt.Errorf("decompose topic: %w", err)
		}
		fmt.Printf("Subtopics: %s\n", strings.Join(d.Subtopics, ", "))
		tags = d.Subtopics[:1]
	}
	spec := question.Spec{Tags: tags, Type: typ, Difficulty: difficulty}
	if err := spec.Validate(); err != nil {
		return err
	}

	genCfg := questiongen.DefaultConfig()
	genCfg.TimeLimits = limits
	gen := questiongen.New(provider, genCfg)
	eval := &evaluate.Evaluator{
		Similarity: similarity.NewLLMScorer(provider),
		Policy:     cfg.ShortAnswerPolicy(),
	}

	fmt.Printf("Topic: %s  [%s]  %s / %s\n", topic, strings.Join(tags, ", "), typ, difficulty)
	fmt.Printf("Generating %d questions...\n\n", count)

	in := bufio.NewScanner(os.Stdin)
	var total float64
	var scored int
	var prior []string

	for i := 1; i <= count; i++ {
		q, err := gen.Generate(ctx, questiongen.GenerateInput{Spec: spec, Topic: topic, PriorQuestions: prior})
		if err != nil {
			fmt.Printf("Question %d: generation failed: %v\n\n", i, err)
			continue
		}
		prior = append(prior, q.Text)

		fmt.Printf("── Question %d/%d (%ds) ──\n", i, count, q.TimeLimit)
		printPreviewQuestion(os.Stdout, q)

		if q.Type == question.TypeCoding {
			fmt.Println("(coding answers are not scored in preview)")
			fmt.Println()
			continue
		}

		fmt.Print("\nYour answer: ")
		if !in.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		text := strings.TrimSpace(in.Text())
		if text == "" {
			fmt.Println("(skipped)")
			fmt.Println()
			continue
		}

		answer := question.Answer{Text: text}
		if q.Type == question.TypeMultipleChoice {
			answer = question.Answer{Choices: strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' })}
		}
		score, err := eval.Evaluate(ctx, q, answer)
		if err != nil {
			fmt.Printf("Scoring failed: %v\n\n", err)
			continue
		}
		total += score
		scored++

		fmt.Printf("Score: %.2f\n", score)
		switch q.Type {
		case question.TypeMultipleChoice:
			fmt.Printf("Correct: %s\n", strings.Join(q.CorrectLabels(), ", "))
		case question.TypeShortAnswer:
			fmt.Printf("Reference: %s\n", q.Reference)
		}
		fmt.Println()
	}

	if scored > 0 {
		fmt.Printf("── Mean score %.2f over %d answers ──\n", total/float64(scored), scored)
	}
	return nil
}

func printPreviewQuestion(w io.Writer, q *question.Question) {
	fmt.Fprintln(w, q.Text)
	switch q.Type {
	case question.TypeMultipleChoice:
		for i, opt := range q.Options {
			fmt.Fprintf(w, "  %s) %s\n", question.OptionLabel(i), opt)
		}
	case question.TypeCoding:
		for i, tc := range q.TestCases {
			if i == 3 {
				fmt.Fprintf(w, "  ... %d more test cases\n", len(q.TestCases)-3)
				break
			}
			fmt.Fprintf(w, "  in: %q  want: %q\n", tc.Input, tc.ExpectedOutput)
		}
	}
}
