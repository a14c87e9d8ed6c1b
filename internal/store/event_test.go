package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, d := range []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "topic-decomposition", InputTokens: 100, OutputTokens: 50, LatencyMs: 300, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "question-gen", InputTokens: 200, OutputTokens: 150, LatencyMs: 500, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "question-gen", InputTokens: 10, OutputTokens: 0, LatencyMs: 100, Success: false, ErrorMessage: "rate limited"},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, d))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "gpt-4o-mini", events[0].Model, "newest first")
	assert.False(t, events[0].Success)
	assert.Equal(t, "rate limited", events[0].ErrorMessage)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: events[1].Sequence})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, events[0].ID, after[0].ID)

	got, err := repo.GetLLMEvent(ctx, events[2].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "topic-decomposition", got.Purpose)
	assert.Equal(t, "req", got.RequestBody)
	assert.Equal(t, "resp", got.ResponseBody)
	assert.True(t, got.Success)
	assert.False(t, got.Timestamp.IsZero())

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "m1", Purpose: "a", InputTokens: 10, OutputTokens: 5, LatencyMs: 100}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "m1", Purpose: "b", InputTokens: 20, OutputTokens: 5, LatencyMs: 300}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "m2", Purpose: "b", InputTokens: 30, OutputTokens: 5, LatencyMs: 500}))

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LLMUsageStats{
		{Purpose: "a", Calls: 1, InputTokens: 10, OutputTokens: 5, AvgLatencyMs: 100},
		{Purpose: "b", Calls: 2, InputTokens: 50, OutputTokens: 10, AvgLatencyMs: 400},
	}, byPurpose)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LLMModelUsage{
		{Model: "m1", Calls: 2, InputTokens: 30, OutputTokens: 10},
		{Model: "m2", Calls: 1, InputTokens: 30, OutputTokens: 5},
	}, byModel)
}

func TestSessionJournal(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", Action: ActionStart, Topic: "Python",
		Tags: []string{"Loops", "OOP"}, MaxQuestions: 10,
	}))
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{
		SessionID: "s1", QuestionIndex: 0, Tags: []string{"Loops"},
		QuestionType: "MultipleChoice", Difficulty: "Medium", QuestionText: "q1",
		Answer: "B", Outcome: OutcomeAnswered, Score: 1, TimeMs: 1200, PlanSource: "fallback",
	}))
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{
		SessionID: "s1", QuestionIndex: 1, Tags: []string{"OOP"},
		QuestionType: "ShortAnswer", Outcome: OutcomeSkipped,
	}))
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{SessionID: "other", Outcome: OutcomeTimedOut}))
	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", Action: ActionEnd, Topic: "Python",
		Tags: []string{"Loops", "OOP"}, QuestionsAsked: 2, MaxQuestions: 10, DurationSecs: 95,
		Beliefs: map[string]float64{"Loops": 1, "OOP": 0},
	}))

	summaries, err := repo.QuerySessionSummaries(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, summaries, 1, "only end events are summaries")
	sum := summaries[0]
	assert.Equal(t, "s1", sum.SessionID)
	assert.Equal(t, 2, sum.QuestionsAsked)
	assert.Equal(t, []string{"Loops", "OOP"}, sum.Tags)
	assert.Equal(t, map[string]float64{"Loops": 1, "OOP": 0}, sum.Beliefs)

	answers, err := repo.SessionAnswers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "q1", answers[0].QuestionText)
	assert.Equal(t, []string{"Loops"}, answers[0].Tags)
	assert.Equal(t, 1.0, answers[0].Score)
	assert.Equal(t, OutcomeSkipped, answers[1].Outcome)
}
