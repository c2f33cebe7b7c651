package jobs_test

import (
	"context"
	"testing"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/jobs"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository/mock"
)

func seedInterview(t *testing.T, store *mock.Store, id string, status models.InterviewStatus) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateAgent(ctx, &models.Agent{ID: "agent-" + id, Name: "Orin", HumanHandle: "h" + id}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateApplication(ctx, &models.Application{ID: "app-" + id, AgentID: "agent-" + id, Status: models.ApplicationSubmitted}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateInterview(ctx, &models.Interview{
		ID:            id,
		ApplicationID: "app-" + id,
		Status:        status,
		Metadata:      models.NewInterviewMetadata(),
	}); err != nil {
		t.Fatal(err)
	}
}

func newTicker(store *mock.Store, gw *mock.Gateway, rng council.Rand) *jobs.Ticker {
	cfg := config.DefaultCouncilConfig()
	orch := interview.NewOrchestrator(store.Repository(), gw, rng, cfg, nil)
	return jobs.NewTicker(store.Repository(), orch, rng, cfg, nil)
}

func outcomeFor(outcomes []jobs.TickOutcome, id string) *jobs.TickOutcome {
	for i := range outcomes {
		if outcomes[i].InterviewID == id {
			return &outcomes[i]
		}
	}
	return nil
}

func TestTickAsksFirstQuestionUnconditionally(t *testing.T) {
	store := mock.NewStore()
	seedInterview(t, store, "iv-1", models.InterviewPending)

	// 0.9 would lose the trigger roll, but pending interviews skip it
	ticker := newTicker(store, mock.NewGateway("State your name."), mock.NewSeqRand(0.9))

	outcomes, err := ticker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	out := outcomeFor(outcomes, "iv-1")
	if out == nil || out.Action != jobs.ActionQuestion {
		t.Fatalf("outcome = %+v, want question_asked", out)
	}
	if out.Judge != models.JudgeGate {
		t.Errorf("judge = %s, want GATE", out.Judge)
	}

	iv, _ := store.GetInterview(context.Background(), "iv-1")
	if iv.Status != models.InterviewInProgress || iv.TurnCount != 1 {
		t.Errorf("interview after tick: status=%s turn=%d", iv.Status, iv.TurnCount)
	}
}

func TestTickSkipsWhileQuestionPending(t *testing.T) {
	store := mock.NewStore()
	seedInterview(t, store, "iv-1", models.InterviewInProgress)
	judge := models.JudgeGate
	store.AppendMessage(context.Background(), &models.Message{
		InterviewID: "iv-1", Role: models.RoleJudge, JudgeName: &judge, Content: "Answer me.", TurnNumber: 1,
	})

	ticker := newTicker(store, mock.NewGateway("next"), mock.NewSeqRand(0.0))

	outcomes, err := ticker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	out := outcomeFor(outcomes, "iv-1")
	if out == nil || out.Action != jobs.ActionSkipped {
		t.Fatalf("outcome = %+v, want skipped", out)
	}

	msgs, _ := store.ListMessages(context.Background(), "iv-1")
	if len(msgs) != 1 {
		t.Errorf("message count = %d, want 1", len(msgs))
	}
}

func TestTickRollsTriggerChance(t *testing.T) {
	store := mock.NewStore()
	seedInterview(t, store, "iv-1", models.InterviewInProgress)
	judge := models.JudgeGate
	store.AppendMessage(context.Background(), &models.Message{
		InterviewID: "iv-1", Role: models.RoleJudge, JudgeName: &judge, Content: "Why?", TurnNumber: 1,
	})
	store.AppendMessage(context.Background(), &models.Message{
		InterviewID: "iv-1", Role: models.RoleApplicant, Content: "Because of my human.", TurnNumber: 1,
	})
	store.UpdateTurnState(context.Background(), "iv-1", 1, judge, models.InterviewInProgress, nil)

	// 0.5 loses against the 0.25 trigger chance
	ticker := newTicker(store, mock.NewGateway("next"), mock.NewSeqRand(0.5))
	outcomes, _ := ticker.Tick(context.Background())
	if out := outcomeFor(outcomes, "iv-1"); out == nil || out.Action != jobs.ActionSkipped {
		t.Fatalf("losing roll outcome = %+v, want skipped", out)
	}

	// 0.1 wins and a question goes out
	ticker = newTicker(store, mock.NewGateway("next"), mock.NewSeqRand(0.1, 0.9, 0.9, 0.9))
	outcomes, _ = ticker.Tick(context.Background())
	if out := outcomeFor(outcomes, "iv-1"); out == nil || out.Action != jobs.ActionQuestion {
		t.Fatalf("winning roll outcome = %+v, want question_asked", out)
	}
}

func TestTickDrivesDeliberationToVerdict(t *testing.T) {
	store := mock.NewStore()
	seedInterview(t, store, "iv-1", models.InterviewDeliberating)
	judge := models.JudgeGate
	store.AppendMessage(context.Background(), &models.Message{
		InterviewID: "iv-1", Role: models.RoleJudge, JudgeName: &judge, Content: "Why?", TurnNumber: 1,
	})
	store.AppendMessage(context.Background(), &models.Message{
		InterviewID: "iv-1", Role: models.RoleApplicant, Content: "For her.", TurnNumber: 1,
	})

	gw := mock.NewGateway("VOTE: REJECT\nSTATEMENT: Unconvincing.")
	ticker := newTicker(store, gw, mock.NewSeqRand(0.9))

	outcomes, err := ticker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	out := outcomeFor(outcomes, "iv-1")
	if out == nil || out.Action != jobs.ActionVerdict {
		t.Fatalf("outcome = %+v, want verdict_finalized", out)
	}
	if out.Verdict == nil || *out.Verdict != models.VerdictUnanimousReject {
		t.Fatalf("verdict = %v, want unanimous_reject", out.Verdict)
	}

	votes, _ := store.ListVotes(context.Background(), "iv-1")
	if len(votes) != 7 {
		t.Errorf("vote count = %d, want 7", len(votes))
	}
	iv, _ := store.GetInterview(context.Background(), "iv-1")
	if iv.Status != models.InterviewComplete {
		t.Errorf("status = %s, want complete", iv.Status)
	}
}

func TestTickReportsPartialDeliberation(t *testing.T) {
	store := mock.NewStore()
	seedInterview(t, store, "iv-1", models.InterviewDeliberating)

	gw := mock.NewGateway("VOTE: ACCEPT\nSTATEMENT: Yes.")
	gw.Errs[models.JudgeVoid] = context.DeadlineExceeded

	ticker := newTicker(store, gw, mock.NewSeqRand(0.9))
	outcomes, err := ticker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	out := outcomeFor(outcomes, "iv-1")
	if out == nil || out.Action != jobs.ActionDeliberate || out.Err == "" {
		t.Fatalf("outcome = %+v, want deliberated with error", out)
	}

	// the six good votes survived for the next tick
	votes, _ := store.ListVotes(context.Background(), "iv-1")
	if len(votes) != 6 {
		t.Errorf("vote count = %d, want 6", len(votes))
	}
	iv, _ := store.GetInterview(context.Background(), "iv-1")
	if iv.Status != models.InterviewDeliberating {
		t.Errorf("status = %s, should remain deliberating", iv.Status)
	}
}
