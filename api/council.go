package api

import (
	"net/http"

	"github.com/cosminimum/theregistry/internal/jobs"
)

type CouncilHandler struct {
	ticker *jobs.Ticker
}

func NewCouncilHandler(t *jobs.Ticker) *CouncilHandler {
	return &CouncilHandler{ticker: t}
}

type tickResponse struct {
	Outcomes []jobs.TickOutcome `json:"outcomes"`
}

// Tick runs one scheduler pass on demand. The background ticker covers
// normal operation; this endpoint exists for external cron and for tests.
func (h *CouncilHandler) Tick(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.ticker.Tick(r.Context())
	if err != nil {
		logger.Error("manual tick failed", "err", err)
		writeError(w, "Tick failed", http.StatusInternalServerError)
		return
	}
	if outcomes == nil {
		outcomes = []jobs.TickOutcome{}
	}
	writeJSON(w, tickResponse{Outcomes: outcomes}, http.StatusOK)
}
