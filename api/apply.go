package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository"
)

// handlePattern matches a Twitter-style handle after the optional @ prefix
// is stripped.
var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)

const maxAgentNameLen = 64

type ApplyHandler struct {
	agents        repository.AgentRepo
	applications  repository.ApplicationRepo
	interviews    repository.InterviewRepo
	verdicts      repository.VerdictRepo
	jwtSecret     string
	tokenDuration time.Duration
	cooldown      time.Duration
}

func NewApplyHandler(ar repository.AgentRepo, apr repository.ApplicationRepo, ir repository.InterviewRepo, vr repository.VerdictRepo, jwtSecret string, tokenDuration, cooldown time.Duration) *ApplyHandler {
	return &ApplyHandler{
		agents:        ar,
		applications:  apr,
		interviews:    ir,
		verdicts:      vr,
		jwtSecret:     jwtSecret,
		tokenDuration: tokenDuration,
		cooldown:      cooldown,
	}
}

type applyRequest struct {
	AgentName   string `json:"agent_name"`
	HumanHandle string `json:"human_handle"`
}

type applyResponse struct {
	ApplicationID string `json:"application_id"`
	InterviewID   string `json:"interview_id"`
	Token         string `json:"token"`
	Attempt       int    `json:"attempt"`
}

// Apply registers an agent's application and opens its interview. One active
// application per agent; accepted agents cannot reapply; rejected agents
// wait out the cooldown.
func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.AgentName)
	handle := strings.TrimPrefix(strings.TrimSpace(req.HumanHandle), "@")
	if name == "" || len(name) > maxAgentNameLen {
		writeError(w, "agent_name must be 1-64 characters", http.StatusBadRequest)
		return
	}
	if !handlePattern.MatchString(handle) {
		writeError(w, "human_handle must be a valid handle", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	agent, err := h.agents.GetAgentByHandle(ctx, handle)
	if err != nil {
		writeError(w, "Error looking up agent", http.StatusInternalServerError)
		return
	}
	if agent == nil {
		agent = &models.Agent{
			ID:          uuid.NewString(),
			Name:        name,
			HumanHandle: handle,
		}
		if err := h.agents.CreateAgent(ctx, agent); err != nil {
			writeError(w, "Error creating agent", http.StatusInternalServerError)
			return
		}
	}

	active, err := h.applications.GetActiveApplicationByAgent(ctx, agent.ID)
	if err != nil {
		writeError(w, "Error checking applications", http.StatusInternalServerError)
		return
	}
	if active != nil {
		writeError(w, "An application is already in progress for this agent", http.StatusConflict)
		return
	}

	latest, err := h.applications.GetLatestDecidedApplicationByAgent(ctx, agent.ID)
	if err != nil {
		writeError(w, "Error checking applications", http.StatusInternalServerError)
		return
	}
	if latest != nil {
		if blocked, msg, status := h.reapplyBlock(r, latest); blocked {
			writeError(w, msg, status)
			return
		}
	}

	count, err := h.applications.CountApplicationsByAgent(ctx, agent.ID)
	if err != nil {
		writeError(w, "Error checking applications", http.StatusInternalServerError)
		return
	}
	attempt := int(count) + 1

	app := &models.Application{
		ID:      uuid.NewString(),
		AgentID: agent.ID,
		Status:  models.ApplicationSubmitted,
	}
	if err := h.applications.CreateApplication(ctx, app); err != nil {
		writeError(w, "Error creating application", http.StatusInternalServerError)
		return
	}

	md := models.NewInterviewMetadata()
	md.AttemptNumber = attempt
	iv := &models.Interview{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Status:        models.InterviewPending,
		Metadata:      md,
	}
	if err := h.interviews.CreateInterview(ctx, iv); err != nil {
		writeError(w, "Error creating interview", http.StatusInternalServerError)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"interview_id": iv.ID,
		"exp":          time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, "Error issuing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, applyResponse{
		ApplicationID: app.ID,
		InterviewID:   iv.ID,
		Token:         tokenStr,
		Attempt:       attempt,
	}, http.StatusCreated)
}

// reapplyBlock decides whether the previous decided application forbids a
// new one: an accepted agent is in for good, a rejected one waits out the
// cooldown.
func (h *ApplyHandler) reapplyBlock(r *http.Request, latest *models.Application) (bool, string, int) {
	ctx := r.Context()

	iv, err := h.interviews.GetInterviewByApplication(ctx, latest.ID)
	if err != nil || iv == nil {
		return false, "", 0
	}
	verdict, err := h.verdicts.GetVerdictByInterview(ctx, iv.ID)
	if err != nil || verdict == nil {
		return false, "", 0
	}

	if verdict.Verdict.Favorable() {
		return true, "Agent already holds a favorable verdict", http.StatusConflict
	}

	if latest.Decided != nil {
		eligible := time.Unix(*latest.Decided, 0).Add(h.cooldown)
		if time.Now().Before(eligible) {
			return true, "Reapplication cooldown active until " + eligible.UTC().Format(time.RFC3339), http.StatusTooManyRequests
		}
	}
	return false, "", 0
}
