package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List finished sessions, or show the answers of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		if len(args) == 1 {
			return showSessionAnswers(ctx, s.EventRepo(), args[0])
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return listSessions(ctx, s.EventRepo(), limit)
	},
}

func listSessions(ctx context.Context, repo store.EventRepo, limit int) error {
	sessions, err := repo.QuerySessionSummaries(ctx, store.QueryOpts{Limit: limit})
	if err != nil {
		return fmt.Errorf("query sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No finished sessions yet.")
		return nil
	}

	fmt.Printf("%-36s  %-16s  %-24s  %-7s  %-6s  %s\n",
		"Session", "Finished", "Topic", "Asked", "Time", "Strong/Mod/Weak")
	fmt.Println(strings.Repeat("─", 110))
	for _, e := range sessions {
		counts := map[session.Band]int{}
		for _, v := range e.Beliefs {
			counts[session.Classify(v)]++
		}
		fmt.Printf("%-36s  %-16s  %-24s  %3d/%-3d  %6s  %d/%d/%d\n",
			e.SessionID,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			truncate(e.Topic, 24),
			e.QuestionsAsked, e.MaxQuestions,
			formatDuration(e.DurationSecs),
			counts[session.BandStrong], counts[session.BandModerate], counts[session.BandWeak],
		)
	}
	return nil
}

func showSessionAnswers(ctx context.Context, repo store.EventRepo, id string) error {
	answers, err := repo.SessionAnswers(ctx, id)
	if err != nil {
		return fmt.Errorf("query answers: %w", err)
	}
	if len(answers) == 0 {
		return fmt.Errorf("no answers recorded for session %s", id)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionIndex < answers[j].QuestionIndex })

	sep := strings.Repeat("─", 60)
	for _, a := range answers {
		fmt.Println(sep)
		fmt.Printf("Q%d  %s / %s  [%s]  via %s\n",
			a.QuestionIndex+1, a.QuestionType, a.Difficulty, strings.Join(a.Tags, ", "), a.PlanSource)
		fmt.Println(a.QuestionText)
		fmt.Println()
		answer := a.Answer
		if answer == "" {
			answer = "(none)"
		}
		fmt.Printf("Answer:  %s\n", answer)
		fmt.Printf("Outcome: %s  score %.2f  in %.1fs\n", a.Outcome, a.Score, float64(a.TimeMs)/1000)
	}
	return nil
}

func formatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to list")
}
