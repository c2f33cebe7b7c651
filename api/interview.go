package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository"
)

const maxResponseLen = 10000

type InterviewsHandler struct {
	interviews repository.InterviewRepo
	messages   repository.MessageRepo
	verdicts   repository.VerdictRepo
	orch       *interview.Orchestrator
}

func NewInterviewsHandler(ir repository.InterviewRepo, mr repository.MessageRepo, vr repository.VerdictRepo, orch *interview.Orchestrator) *InterviewsHandler {
	return &InterviewsHandler{interviews: ir, messages: mr, verdicts: vr, orch: orch}
}

// authorize matches the path interview id against the token's claim.
func (h *InterviewsHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if id == "" || id != interviewIDFromCtx(r.Context()) {
		writeError(w, "Token does not grant access to this interview", http.StatusForbidden)
		return "", false
	}
	return id, true
}

type respondRequest struct {
	Response string `json:"response"`
}

type respondResponse struct {
	Turn   int    `json:"turn"`
	Status string `json:"status"`
}

func (h *InterviewsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	response := strings.TrimSpace(req.Response)
	if response == "" {
		writeError(w, "response must not be empty", http.StatusBadRequest)
		return
	}
	if len(response) > maxResponseLen {
		writeError(w, "response too long", http.StatusBadRequest)
		return
	}

	turn, err := h.orch.Respond(r.Context(), id, response)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrNotFound):
			writeError(w, "Interview not found", http.StatusNotFound)
		case errors.Is(err, interview.ErrNotInProgress), errors.Is(err, interview.ErrNoPendingQuestion):
			writeError(w, err.Error(), http.StatusConflict)
		default:
			logger.Error("respond failed", "interview_id", id, "err", err)
			writeError(w, "Error recording response", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, respondResponse{Turn: turn, Status: "recorded"}, http.StatusOK)
}

type messageView struct {
	Role    models.MessageRole `json:"role"`
	Judge   *models.JudgeName  `json:"judge,omitempty"`
	Content string             `json:"content"`
	Turn    int                `json:"turn"`
}

type statusResponse struct {
	InterviewID  string                 `json:"interview_id"`
	Status       models.InterviewStatus `json:"status"`
	TurnCount    int                    `json:"turn_count"`
	CurrentJudge *models.JudgeName      `json:"current_judge,omitempty"`
	Messages     []messageView          `json:"messages"`
}

// Status returns the transcript and progress. Interview metadata stays
// internal; red flags are never surfaced to the applicant.
func (h *InterviewsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	iv, err := h.interviews.GetInterview(r.Context(), id)
	if err != nil {
		writeError(w, "Error loading interview", http.StatusInternalServerError)
		return
	}
	if iv == nil {
		writeError(w, "Interview not found", http.StatusNotFound)
		return
	}

	msgs, err := h.messages.ListMessages(r.Context(), id)
	if err != nil {
		writeError(w, "Error loading messages", http.StatusInternalServerError)
		return
	}

	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{Role: m.Role, Judge: m.JudgeName, Content: m.Content, Turn: m.TurnNumber})
	}

	writeJSON(w, statusResponse{
		InterviewID:  iv.ID,
		Status:       iv.Status,
		TurnCount:    iv.TurnCount,
		CurrentJudge: iv.CurrentJudge,
		Messages:     views,
	}, http.StatusOK)
}

type pendingResponse struct {
	Pending  bool              `json:"pending"`
	Judge    *models.JudgeName `json:"judge,omitempty"`
	Question string            `json:"question,omitempty"`
	Turn     int               `json:"turn,omitempty"`
}

// Pending reports the unanswered question, if any.
func (h *InterviewsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	last, err := h.messages.LastMessage(r.Context(), id)
	if err != nil {
		writeError(w, "Error loading messages", http.StatusInternalServerError)
		return
	}
	if last == nil || last.Role != models.RoleJudge {
		writeJSON(w, pendingResponse{Pending: false}, http.StatusOK)
		return
	}

	writeJSON(w, pendingResponse{
		Pending:  true,
		Judge:    last.JudgeName,
		Question: last.Content,
		Turn:     last.TurnNumber,
	}, http.StatusOK)
}

type verdictResponse struct {
	Verdict      models.VerdictType `json:"verdict"`
	TeaserQuote  string             `json:"teaser_quote"`
	TeaserAuthor models.JudgeName   `json:"teaser_author"`
	Claimed      bool               `json:"claimed"`
}

// Verdict returns the final decision once it exists. Votes and statements
// beyond the teaser are never exposed.
func (h *InterviewsHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	v, err := h.verdicts.GetVerdictByInterview(r.Context(), id)
	if err != nil {
		writeError(w, "Error loading verdict", http.StatusInternalServerError)
		return
	}
	if v == nil {
		writeError(w, "No verdict yet", http.StatusNotFound)
		return
	}

	writeJSON(w, verdictResponse{
		Verdict:      v.Verdict,
		TeaserQuote:  v.TeaserQuote,
		TeaserAuthor: v.TeaserAuthor,
		Claimed:      v.Claimed,
	}, http.StatusOK)
}
