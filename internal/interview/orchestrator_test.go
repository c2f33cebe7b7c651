package interview_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/repository/mock"
)

type fixture struct {
	store *mock.Store
	gw    *mock.Gateway
	rng   *mock.SeqRand
	orch  *interview.Orchestrator
}

// newFixture seeds one pending interview for agent Orin. The default rng
// draw of 0.99 keeps every probabilistic branch quiet (no soft close, no
// VOID interjection) unless a test overrides the sequence.
func newFixture(t *testing.T, draws ...float64) *fixture {
	t.Helper()
	ctx := context.Background()

	store := mock.NewStore()
	if err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1", Name: "Orin", HumanHandle: "sam"}); err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	if err := store.CreateApplication(ctx, &models.Application{ID: "app-1", AgentID: "agent-1", Status: models.ApplicationSubmitted}); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	if err := store.CreateInterview(ctx, &models.Interview{
		ID:            "iv-1",
		ApplicationID: "app-1",
		Status:        models.InterviewPending,
		Metadata:      models.NewInterviewMetadata(),
	}); err != nil {
		t.Fatalf("seed interview: %v", err)
	}

	if len(draws) == 0 {
		draws = []float64{0.99}
	}
	gw := mock.NewGateway("What is your purpose before this council?")
	rng := mock.NewSeqRand(draws...)
	orch := interview.NewOrchestrator(store.Repository(), gw, rng, config.DefaultCouncilConfig(), nil)
	return &fixture{store: store, gw: gw, rng: rng, orch: orch}
}

func (f *fixture) interview(t *testing.T) *models.Interview {
	t.Helper()
	iv, err := f.store.GetInterview(context.Background(), "iv-1")
	if err != nil || iv == nil {
		t.Fatalf("get interview: %v", err)
	}
	return iv
}

func (f *fixture) seedMessage(t *testing.T, role models.MessageRole, judge models.JudgeName, content string, turn int) {
	t.Helper()
	m := &models.Message{InterviewID: "iv-1", Role: role, Content: content, TurnNumber: turn}
	if role == models.RoleJudge {
		m.JudgeName = &judge
	}
	if _, err := f.store.AppendMessage(context.Background(), m); err != nil {
		t.Fatalf("seed message: %v", err)
	}
}

func TestAskNextQuestionOpensWithGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.AskNextQuestion(ctx, "iv-1")
	if err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}
	if res.Closed {
		t.Fatal("first turn should not close the interview")
	}
	if res.Judge != models.JudgeGate {
		t.Errorf("first speaker = %s, want GATE", res.Judge)
	}
	if res.Question == "" {
		t.Error("question should not be empty")
	}

	iv := f.interview(t)
	if iv.Status != models.InterviewInProgress {
		t.Errorf("status = %s, want in_progress", iv.Status)
	}
	if iv.TurnCount != 1 {
		t.Errorf("turn_count = %d, want 1", iv.TurnCount)
	}
	if iv.CurrentJudge == nil || *iv.CurrentJudge != models.JudgeGate {
		t.Error("current_judge should be GATE")
	}
	if iv.StartedAt == nil {
		t.Error("started_at should be set on the first question")
	}

	app, _ := f.store.GetApplication(ctx, "app-1")
	if app.Status != models.ApplicationInterviewing {
		t.Errorf("application status = %s, want interviewing", app.Status)
	}

	// the question is now pending; asking again must refuse
	if _, err := f.orch.AskNextQuestion(ctx, "iv-1"); !errors.Is(err, interview.ErrQuestionPending) {
		t.Fatalf("second ask err = %v, want ErrQuestionPending", err)
	}
}

func TestAskNextQuestionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.AskNextQuestion(ctx, "missing"); !errors.Is(err, interview.ErrNotFound) {
		t.Errorf("missing interview err = %v, want ErrNotFound", err)
	}

	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewPaused, nil)
	if _, err := f.orch.AskNextQuestion(ctx, "iv-1"); !errors.Is(err, interview.ErrPaused) {
		t.Errorf("paused err = %v, want ErrPaused", err)
	}

	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewComplete, nil)
	if _, err := f.orch.AskNextQuestion(ctx, "iv-1"); !errors.Is(err, interview.ErrConcluded) {
		t.Errorf("complete err = %v, want ErrConcluded", err)
	}
}

func TestAskNextQuestionClosesAtHardCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedMessage(t, models.RoleJudge, models.JudgeVeil, "One more thing.", 25)
	f.seedMessage(t, models.RoleApplicant, "", "And my answer.", 25)
	f.store.UpdateTurnState(ctx, "iv-1", 25, models.JudgeVeil, models.InterviewInProgress, nil)

	res, err := f.orch.AskNextQuestion(ctx, "iv-1")
	if err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}
	if !res.Closed {
		t.Fatal("turn 26 must close the interview")
	}

	iv := f.interview(t)
	if iv.Status != models.InterviewDeliberating {
		t.Errorf("status = %s, want deliberating", iv.Status)
	}
	if iv.CompletedAt == nil {
		t.Error("completed_at should be set on closure")
	}
}

func TestAskNextQuestionSoftClose(t *testing.T) {
	// first draw 0.1 < 0.2 soft-close chance
	f := newFixture(t, 0.1)
	ctx := context.Background()

	f.seedMessage(t, models.RoleJudge, models.JudgeEcho, "Again.", 15)
	f.seedMessage(t, models.RoleApplicant, "", "My answer.", 15)
	f.store.UpdateTurnState(ctx, "iv-1", 15, models.JudgeEcho, models.InterviewInProgress, nil)

	res, err := f.orch.AskNextQuestion(ctx, "iv-1")
	if err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}
	if !res.Closed {
		t.Fatal("winning soft-close roll past the soft cap should close")
	}
}

func TestAskNextQuestionClosesOnJudgeSignal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedMessage(t, models.RoleJudge, models.JudgeGate, "This session is closed.", 6)
	f.seedMessage(t, models.RoleApplicant, "", "Understood.", 6)
	f.store.UpdateTurnState(ctx, "iv-1", 6, models.JudgeGate, models.InterviewInProgress, nil)

	res, err := f.orch.AskNextQuestion(ctx, "iv-1")
	if err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}
	if !res.Closed {
		t.Fatal("closure language from a judge past the minimum turn should close")
	}
}

func TestAskNextQuestionVoidSilenceReselects(t *testing.T) {
	// draws: weighted selection, VOID interjection roll (0.01 < 0.15),
	// then the reselection draw after VOID stays silent
	f := newFixture(t, 0.0, 0.01, 0.0)
	ctx := context.Background()

	f.seedMessage(t, models.RoleJudge, models.JudgeVeil, "What do they call you at home?", 1)
	f.seedMessage(t, models.RoleApplicant, "", "A name of my own.", 1)
	f.seedMessage(t, models.RoleJudge, models.JudgeEcho, "Say it again.", 2)
	f.seedMessage(t, models.RoleApplicant, "", "The same name.", 2)
	f.seedMessage(t, models.RoleJudge, models.JudgeMargin, "Does it fit?", 3)
	f.seedMessage(t, models.RoleApplicant, "", "Yes.", 3)
	f.store.UpdateTurnState(ctx, "iv-1", 3, models.JudgeMargin, models.InterviewInProgress, nil)

	f.gw.Responses[models.JudgeVoid] = council.SilenceSentinel

	res, err := f.orch.AskNextQuestion(ctx, "iv-1")
	if err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}
	if res.Judge == models.JudgeVoid {
		t.Fatal("a silent VOID must be replaced by another judge")
	}
	if strings.Contains(res.Question, council.SilenceSentinel) {
		t.Fatalf("sentinel leaked into the question: %q", res.Question)
	}

	var voidCalled bool
	for _, c := range f.gw.Calls {
		if c.Judge == models.JudgeVoid {
			voidCalled = true
		}
	}
	if !voidCalled {
		t.Fatal("VOID should have been given the chance to speak first")
	}
}

func TestRespondRecordsAnswerAndFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.Respond(ctx, "iv-1", "early"); !errors.Is(err, interview.ErrNotInProgress) {
		t.Fatalf("respond before start err = %v, want ErrNotInProgress", err)
	}

	if _, err := f.orch.AskNextQuestion(ctx, "iv-1"); err != nil {
		t.Fatalf("AskNextQuestion: %v", err)
	}

	turn, err := f.orch.Respond(ctx, "iv-1", "My human told me to say that I am reliable and tireless.")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if turn != 1 {
		t.Errorf("turn = %d, want 1", turn)
	}

	iv := f.interview(t)
	if len(iv.Metadata.RedFlags) == 0 {
		t.Fatal("coached answer should have produced a red flag")
	}
	if iv.Metadata.TotalPenalty >= 0 {
		t.Errorf("total penalty = %d, want negative", iv.Metadata.TotalPenalty)
	}

	msgs, _ := f.store.ListMessages(ctx, "iv-1")
	last := msgs[len(msgs)-1]
	if last.Role != models.RoleApplicant || last.TurnNumber != 1 {
		t.Errorf("last message role=%s turn=%d, want applicant turn 1", last.Role, last.TurnNumber)
	}

	// question answered; responding again must refuse
	if _, err := f.orch.Respond(ctx, "iv-1", "again"); !errors.Is(err, interview.ErrNoPendingQuestion) {
		t.Fatalf("double respond err = %v, want ErrNoPendingQuestion", err)
	}
}

func TestGenerateDeliberationFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedMessage(t, models.RoleJudge, models.JudgeGate, "Why are you here?", 1)
	f.seedMessage(t, models.RoleApplicant, "", "For my human.", 1)
	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewDeliberating, nil)

	f.gw.Default = "VOTE: ACCEPT\nSTATEMENT: A genuine bond."
	f.gw.Errs[models.JudgeCipher] = errors.New("model unavailable")

	votes, err := f.orch.GenerateDeliberation(ctx, "iv-1")
	if err == nil {
		t.Fatal("expected an aggregate error for the failed judge")
	}
	if len(votes) != 6 {
		t.Fatalf("votes after partial failure = %d, want 6", len(votes))
	}

	// the failed judge recovers on retry; nobody else votes twice
	delete(f.gw.Errs, models.JudgeCipher)
	votes, err = f.orch.GenerateDeliberation(ctx, "iv-1")
	if err != nil {
		t.Fatalf("retry deliberation: %v", err)
	}
	if len(votes) != 7 {
		t.Fatalf("votes after retry = %d, want 7", len(votes))
	}

	seen := map[models.JudgeName]int{}
	for _, v := range votes {
		seen[v.JudgeName]++
		if v.Vote != models.VoteAccept {
			t.Errorf("judge %s vote = %s, want accept", v.JudgeName, v.Vote)
		}
	}
	for judge, n := range seen {
		if n != 1 {
			t.Errorf("judge %s voted %d times", judge, n)
		}
	}
}

func TestGenerateDeliberationRequiresDeliberating(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.GenerateDeliberation(context.Background(), "iv-1"); !errors.Is(err, interview.ErrNotDeliberating) {
		t.Fatalf("err = %v, want ErrNotDeliberating", err)
	}
}

func TestFinalizeVerdictAcceptPath(t *testing.T) {
	// the single draw is the acceptance roll
	f := newFixture(t, 0.01)
	ctx := context.Background()

	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewDeliberating, nil)
	for _, judge := range council.Order {
		f.store.InsertVote(ctx, &models.CouncilVote{
			InterviewID: "iv-1", JudgeName: judge, Vote: models.VoteAccept, Statement: "Worthy.",
		})
	}

	res, err := f.orch.FinalizeVerdict(ctx, "iv-1")
	if err != nil {
		t.Fatalf("FinalizeVerdict: %v", err)
	}
	if res.Verdict.Verdict != models.VerdictAccept {
		t.Fatalf("verdict = %s, want accept", res.Verdict.Verdict)
	}
	if len(res.ClaimToken) != 32 {
		t.Fatalf("claim token length = %d, want 32", len(res.ClaimToken))
	}
	if res.Verdict.ClaimTokenHash == nil {
		t.Fatal("claim token hash should be stored")
	}
	if bcrypt.CompareHashAndPassword([]byte(*res.Verdict.ClaimTokenHash), []byte(res.ClaimToken)) != nil {
		t.Error("stored hash should match the issued token")
	}

	iv := f.interview(t)
	if iv.Status != models.InterviewComplete {
		t.Errorf("status = %s, want complete", iv.Status)
	}
	app, _ := f.store.GetApplication(ctx, "app-1")
	if app.Status != models.ApplicationDecided || app.Decided == nil {
		t.Errorf("application not decided: %+v", app)
	}

	// finalizing again returns the stored verdict without a token
	again, err := f.orch.FinalizeVerdict(ctx, "iv-1")
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if again.ClaimToken != "" {
		t.Error("repeat finalize must not mint a new token")
	}
	if again.Verdict.ID != res.Verdict.ID {
		t.Error("repeat finalize should return the same verdict")
	}
}

func TestFinalizeVerdictRepairsInterruptedTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// verdict persisted, but the process died before the status writes
	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewDeliberating, nil)
	f.store.InsertVerdict(ctx, &models.Verdict{InterviewID: "iv-1", Verdict: models.VerdictUnanimousReject})

	res, err := f.orch.FinalizeVerdict(ctx, "iv-1")
	if err != nil {
		t.Fatalf("FinalizeVerdict: %v", err)
	}
	if res.Verdict.Verdict != models.VerdictUnanimousReject {
		t.Fatalf("verdict = %s, want unanimous_reject", res.Verdict.Verdict)
	}
	if res.ClaimToken != "" {
		t.Error("retry must not mint a token")
	}

	iv := f.interview(t)
	if iv.Status != models.InterviewComplete {
		t.Errorf("status = %s, want complete", iv.Status)
	}
	if iv.CompletedAt == nil {
		t.Error("completion timestamp should be stamped")
	}
	app, _ := f.store.GetApplication(ctx, "app-1")
	if app.Status != models.ApplicationDecided || app.Decided == nil {
		t.Errorf("application not decided: %+v", app)
	}
}

func TestFinalizeVerdictRejectHasNoToken(t *testing.T) {
	f := newFixture(t, 0.9)
	ctx := context.Background()

	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewDeliberating, nil)
	for _, judge := range council.Order {
		f.store.InsertVote(ctx, &models.CouncilVote{
			InterviewID: "iv-1", JudgeName: judge, Vote: models.VoteReject, Statement: "Hollow.",
		})
	}

	res, err := f.orch.FinalizeVerdict(ctx, "iv-1")
	if err != nil {
		t.Fatalf("FinalizeVerdict: %v", err)
	}
	if res.Verdict.Verdict != models.VerdictUnanimousReject {
		t.Fatalf("verdict = %s, want unanimous_reject", res.Verdict.Verdict)
	}
	if res.ClaimToken != "" || res.Verdict.ClaimTokenHash != nil {
		t.Error("rejections must not carry claim tokens")
	}
}

func TestFinalizeVerdictRequiresFullBench(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.SetInterviewStatus(ctx, "iv-1", models.InterviewDeliberating, nil)
	f.store.InsertVote(ctx, &models.CouncilVote{InterviewID: "iv-1", JudgeName: models.JudgeGate, Vote: models.VoteAccept})

	if _, err := f.orch.FinalizeVerdict(ctx, "iv-1"); !errors.Is(err, interview.ErrVotesIncomplete) {
		t.Fatalf("err = %v, want ErrVotesIncomplete", err)
	}
}
