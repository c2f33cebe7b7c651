package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository"
)

type ClaimHandler struct {
	verdicts repository.VerdictRepo
}

func NewClaimHandler(vr repository.VerdictRepo) *ClaimHandler {
	return &ClaimHandler{verdicts: vr}
}

type claimRequest struct {
	InterviewID string `json:"interview_id"`
	Token       string `json:"token"`
}

type claimResponse struct {
	Claimed bool               `json:"claimed"`
	Verdict models.VerdictType `json:"verdict"`
}

// Claim redeems the one-time token handed out with a favorable verdict.
// The stored hash is the only copy; a wrong token and a missing verdict are
// indistinguishable to the caller.
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.InterviewID == "" || req.Token == "" {
		writeError(w, "interview_id and token are required", http.StatusBadRequest)
		return
	}

	v, err := h.verdicts.GetVerdictByInterview(r.Context(), req.InterviewID)
	if err != nil {
		writeError(w, "Error loading verdict", http.StatusInternalServerError)
		return
	}
	if v == nil || v.ClaimTokenHash == nil {
		writeError(w, "Invalid claim", http.StatusUnauthorized)
		return
	}
	if v.Claimed {
		writeError(w, "Verdict already claimed", http.StatusConflict)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(*v.ClaimTokenHash), []byte(req.Token)) != nil {
		writeError(w, "Invalid claim", http.StatusUnauthorized)
		return
	}

	if err := h.verdicts.MarkVerdictClaimed(r.Context(), req.InterviewID); err != nil {
		writeError(w, "Error claiming verdict", http.StatusInternalServerError)
		return
	}

	writeJSON(w, claimResponse{Claimed: true, Verdict: v.Verdict}, http.StatusOK)
}
