// Package jobs runs the background council ticker that advances interviews
// without any client request: rolling for new questions on active
// interviews and driving deliberation and verdicts on closed ones.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository"
)

// TickOutcome describes what one tick did to one interview.
type TickOutcome struct {
	InterviewID string              `json:"interview_id"`
	Action      string              `json:"action"`
	Judge       models.JudgeName    `json:"judge,omitempty"`
	Verdict     *models.VerdictType `json:"verdict,omitempty"`
	Err         string              `json:"error,omitempty"`
}

const (
	ActionQuestion   = "question_asked"
	ActionSkipped    = "skipped"
	ActionClosed     = "closed"
	ActionDeliberate = "deliberated"
	ActionVerdict    = "verdict_finalized"
	ActionError      = "error"
)

// Ticker owns the periodic advance loop. One Ticker per process; Start and
// Stop bracket its goroutine.
type Ticker struct {
	repo   *repository.Repository
	orch   *interview.Orchestrator
	rng    council.Rand
	cfg    config.CouncilConfig
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTicker(repo *repository.Repository, orch *interview.Orchestrator, rng council.Rand, cfg config.CouncilConfig, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{repo: repo, orch: orch, rng: rng, cfg: cfg, logger: logger}
}

// Start launches the tick loop. Stop waits for an in-flight tick to finish.
func (t *Ticker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.TickInterval)
		defer ticker.Stop()

		t.logger.Info("council ticker started", slog.Duration("interval", t.cfg.TickInterval))
		for {
			select {
			case <-ctx.Done():
				t.logger.Info("council ticker stopped")
				return
			case <-ticker.C:
				if _, err := t.Tick(ctx); err != nil {
					t.logger.Error("tick failed", slog.Any("err", err))
				}
			}
		}
	}()
}

func (t *Ticker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// Tick runs one pass over all unfinished interviews. Failures on one
// interview are recorded in its outcome and never stop the pass.
func (t *Ticker) Tick(ctx context.Context) ([]TickOutcome, error) {
	var outcomes []TickOutcome

	active, err := t.listActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, iv := range active {
		outcomes = append(outcomes, t.advanceActive(ctx, iv))
	}

	deliberating, err := t.repo.Interviews.ListInterviewsByStatus(ctx, models.InterviewDeliberating)
	if err != nil {
		return outcomes, err
	}
	for _, iv := range deliberating {
		outcomes = append(outcomes, t.deliberate(ctx, iv))
	}

	return outcomes, nil
}

func (t *Ticker) listActive(ctx context.Context) ([]models.Interview, error) {
	pending, err := t.repo.Interviews.ListInterviewsByStatus(ctx, models.InterviewPending)
	if err != nil {
		return nil, err
	}
	inProgress, err := t.repo.Interviews.ListInterviewsByStatus(ctx, models.InterviewInProgress)
	if err != nil {
		return nil, err
	}
	return append(pending, inProgress...), nil
}

// advanceActive rolls the question-trigger chance for one active interview.
// An unanswered question always skips; the applicant sets the pace.
func (t *Ticker) advanceActive(ctx context.Context, iv models.Interview) TickOutcome {
	out := TickOutcome{InterviewID: iv.ID}

	last, err := t.repo.Messages.LastMessage(ctx, iv.ID)
	if err != nil {
		out.Action, out.Err = ActionError, err.Error()
		return out
	}
	if last != nil && last.Role == models.RoleJudge {
		out.Action = ActionSkipped
		return out
	}

	// first question fires unconditionally; later ones roll the dice
	if iv.Status != models.InterviewPending && t.rng.Float64() >= t.cfg.QuestionTriggerChance {
		out.Action = ActionSkipped
		return out
	}

	res, err := t.orch.AskNextQuestion(ctx, iv.ID)
	if err != nil {
		if errors.Is(err, interview.ErrQuestionPending) {
			out.Action = ActionSkipped
			return out
		}
		t.logger.Error("ask question failed", slog.String("interview_id", iv.ID), slog.Any("err", err))
		out.Action, out.Err = ActionError, err.Error()
		return out
	}
	if res.Closed {
		out.Action = ActionClosed
		return out
	}
	out.Action = ActionQuestion
	out.Judge = res.Judge
	return out
}

// deliberate drives one deliberating interview toward its verdict: generate
// any missing votes, then finalize once the bench is complete.
func (t *Ticker) deliberate(ctx context.Context, iv models.Interview) TickOutcome {
	out := TickOutcome{InterviewID: iv.ID}

	if _, err := t.orch.GenerateDeliberation(ctx, iv.ID); err != nil {
		t.logger.Error("deliberation incomplete", slog.String("interview_id", iv.ID), slog.Any("err", err))
		out.Action, out.Err = ActionDeliberate, err.Error()
		return out
	}

	res, err := t.orch.FinalizeVerdict(ctx, iv.ID)
	if err != nil {
		if errors.Is(err, interview.ErrVotesIncomplete) {
			out.Action, out.Err = ActionDeliberate, err.Error()
			return out
		}
		t.logger.Error("finalize verdict failed", slog.String("interview_id", iv.ID), slog.Any("err", err))
		out.Action, out.Err = ActionError, err.Error()
		return out
	}

	v := res.Verdict.Verdict
	out.Action = ActionVerdict
	out.Verdict = &v
	return out
}
