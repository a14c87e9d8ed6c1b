package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/abhisek/skillprobe/internal/store"
)

type captureSink struct {
	events []store.LLMRequestEventData
	err    error
}

func (c *captureSink) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	c.events = append(c.events, data)
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"similarity":0.9}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 4},
	})
	sink := &captureSink{}
	p := WithLogging(mock, ProviderMock, sink, discardLogger())

	ctx := WithPurpose(context.Background(), "answer-similarity")
	if _, err := p.Generate(ctx, Request{System: "grade", Messages: UserMessage("a vs b")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Purpose != "answer-similarity" || ev.Provider != ProviderMock || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.InputTokens != 12 || ev.OutputTokens != 4 {
		t.Fatalf("usage not recorded: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\ngrade") || !strings.Contains(ev.RequestBody, "[user]\na vs b") {
		t.Fatalf("request body = %q", ev.RequestBody)
	}
	if ev.ResponseBody != `{"similarity":0.9}` {
		t.Fatalf("response body = %q", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	sink := &captureSink{}
	p := WithLogging(mock, ProviderMock, sink, discardLogger())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	ev := sink.events[0]
	if ev.Success || !strings.Contains(ev.ErrorMessage, "down") {
		t.Fatalf("failure not recorded: %+v", ev)
	}
	if ev.Purpose != "unknown" {
		t.Fatalf("purpose = %q", ev.Purpose)
	}
}

func TestLogging_SinkFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	sink := &captureSink{err: errors.New("disk full")}
	p := WithLogging(mock, ProviderMock, sink, discardLogger())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("journal failure leaked into request: %v", err)
	}
}

func TestLogging_NilSink(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, ProviderMock, nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSerializeRequest_IncludesSchema(t *testing.T) {
	got := serializeRequest(Request{
		Messages: UserMessage("hi"),
		Schema:   &Schema{Name: "next-question", Definition: map[string]any{"type": "object"}},
	})
	if !strings.Contains(got, `[schema: next-question]`) || !strings.Contains(got, `{"type":"object"}`) {
		t.Fatalf("serialized = %q", got)
	}
}
