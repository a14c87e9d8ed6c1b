package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/session"
)

type createSessionRequest struct {
	Topic        string `json:"topic"`
	MaxQuestions int    `json:"max_questions,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
	})
}

// handleCreateSession creates a session and decomposes its topic. A
// session whose decomposition fails is not kept.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxQuestions < 0 {
		s.jsonError(w, http.StatusBadRequest, "max_questions must not be negative")
		return
	}

	f := s.registry.Create(req.MaxQuestions)
	if err := f.Start(r.Context(), req.Topic); err != nil {
		_ = s.registry.Delete(f.ID())
		s.writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newSessionView(f.Snapshot()))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": s.registry.IDs()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(f.Snapshot()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}

	q, err := f.Next(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if q == nil {
		sum, err := f.Summary()
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, nextView{Summary: newSummaryView(sum)})
		return
	}
	s.jsonResponse(w, http.StatusOK, nextView{Question: newQuestionView(q)})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}

	var answer question.Answer
	if err := json.NewDecoder(r.Body).Decode(&answer); err != nil && !errors.Is(err, io.EOF) {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fb, err := f.Submit(r.Context(), answer)
	s.writeFeedback(w, f, fb, err)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	fb, err := f.Retry(r.Context())
	s.writeFeedback(w, f, fb, err)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	fb, err := f.Skip(r.Context())
	s.writeFeedback(w, f, fb, err)
}

func (s *Server) handleExpire(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	fb, err := f.Expire(r.Context())
	s.writeFeedback(w, f, fb, err)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	sum, err := f.Finish(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSummaryView(sum))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	f.Restart(r.Context())
	s.jsonResponse(w, http.StatusOK, newSessionView(f.Snapshot()))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flow(w, r)
	if !ok {
		return
	}
	sum, err := f.Summary()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSummaryView(sum))
}

func (s *Server) flow(w http.ResponseWriter, r *http.Request) (*session.Flow, bool) {
	f, err := s.registry.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, err)
		return nil, false
	}
	return f, true
}

func (s *Server) writeFeedback(w http.ResponseWriter, f *session.Flow, fb session.Feedback, err error) {
	if err != nil {
		s.writeErr(w, err)
		return
	}
	v := feedbackView{
		Outcome:        string(fb.Outcome),
		Score:          fb.Score,
		Beliefs:        fb.Beliefs,
		QuestionsAsked: fb.QuestionsAsked,
		MaxQuestions:   fb.MaxQuestions,
		Done:           fb.Done,
	}
	if fb.Done {
		if sum, err := f.Summary(); err == nil {
			v.Summary = newSummaryView(sum)
		}
	}
	s.jsonResponse(w, http.StatusOK, v)
}
