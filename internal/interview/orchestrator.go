// Package interview drives the council interview state machine: asking
// questions, accepting responses, running deliberation, and finalizing
// verdicts. The orchestrator holds no conversation state between calls;
// every operation re-reads its context from the store, so any call is safe
// to retry from scratch.
package interview

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/internal/redflags"
	"github.com/cosminimum/theregistry/pkg/genai"
	"github.com/cosminimum/theregistry/pkg/repository"
)

// Guard rejections. All are recoverable: the caller corrects state or
// retries on a later tick.
var (
	ErrNotFound          = errors.New("interview not found")
	ErrConcluded         = errors.New("interview already concluded")
	ErrPaused            = errors.New("interview is paused")
	ErrQuestionPending   = errors.New("question already pending")
	ErrNoPendingQuestion = errors.New("no pending question to respond to")
	ErrNotInProgress     = errors.New("interview not in progress")
	ErrNotDeliberating   = errors.New("interview not in deliberating status")
	ErrVotesIncomplete   = errors.New("not all judges have voted")
)

// closure-signaling phrases in recent judge messages; judges sometimes end
// the session in-character before the turn caps do
var closureSignalPattern = regexp.MustCompile(`(?i)\b(session is closed|goodbye|farewell|we will now conclude|council deliberat|verdict:\s*(unanimous\s+)?accept|verdict:\s*(unanimous\s+)?reject)\b`)

type Orchestrator struct {
	repo     *repository.Repository
	gw       genai.Gateway
	selector *council.Selector
	rng      council.Rand
	cfg      config.CouncilConfig
	logger   *slog.Logger
}

func NewOrchestrator(repo *repository.Repository, gw genai.Gateway, rng council.Rand, cfg config.CouncilConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		repo:     repo,
		gw:       gw,
		selector: council.NewSelector(rng),
		rng:      rng,
		cfg:      cfg,
		logger:   logger,
	}
}

// Snapshot is the per-call view of one interview, rebuilt from the store at
// the start of every operation and discarded afterwards.
type Snapshot struct {
	Interview *models.Interview
	Agent     *models.Agent
	Messages  []models.Message
}

func (o *Orchestrator) loadSnapshot(ctx context.Context, interviewID string) (*Snapshot, error) {
	iv, err := o.repo.Interviews.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	if iv == nil {
		return nil, ErrNotFound
	}

	app, err := o.repo.Applications.GetApplication(ctx, iv.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %s missing for interview %s", iv.ApplicationID, interviewID)
	}

	agent, err := o.repo.Agents.GetAgentByID(ctx, app.AgentID)
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s missing for interview %s", app.AgentID, interviewID)
	}

	msgs, err := o.repo.Messages.ListMessages(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return &Snapshot{Interview: iv, Agent: agent, Messages: msgs}, nil
}

// QuestionResult is the outcome of one AskNextQuestion call. Closed means
// the interview moved to deliberation instead of producing a question.
type QuestionResult struct {
	Closed   bool
	Judge    models.JudgeName
	Question string
}

// AskNextQuestion advances the interview by one judge question, or closes it
// for deliberation when a closure condition holds.
func (o *Orchestrator) AskNextQuestion(ctx context.Context, interviewID string) (*QuestionResult, error) {
	snap, err := o.loadSnapshot(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	iv := snap.Interview

	switch iv.Status {
	case models.InterviewComplete, models.InterviewDeliberating:
		return nil, ErrConcluded
	case models.InterviewPaused:
		return nil, ErrPaused
	}

	// pending-question guard: never double-ask
	if n := len(snap.Messages); n > 0 && snap.Messages[n-1].Role == models.RoleJudge {
		return nil, ErrQuestionPending
	}

	nextTurn := iv.TurnCount + 1

	if o.shouldClose(snap, nextTurn) {
		completed := time.Now().UTC().Unix()
		if err := o.repo.Interviews.SetInterviewStatus(ctx, interviewID, models.InterviewDeliberating, &completed); err != nil {
			return nil, fmt.Errorf("close interview: %w", err)
		}
		o.logger.Info("interview closed for deliberation", slog.String("interview_id", interviewID), slog.Int("turn", iv.TurnCount))
		return &QuestionResult{Closed: true}, nil
	}

	recentJudges := recentJudgeNames(snap.Messages, 5)
	lastResponse := lastApplicantContent(snap.Messages)
	recentMessages := recentContents(snap.Messages, 6)

	selected := o.selector.Next(nextTurn, recentJudges, lastResponse, recentMessages)

	// rare-judge override, independent of the weighted draw
	if selected != models.JudgeVoid &&
		o.selector.VoidInterjects(nextTurn, fullContent(snap.Messages)) &&
		!containsJudge(recentJudges, models.JudgeVoid) {
		selected = models.JudgeVoid
	}

	question, err := o.generateQuestion(ctx, snap, selected, nextTurn)
	if err != nil {
		return nil, err
	}

	// VOID chose silence: the applicant must still receive a real question,
	// so re-run selection with VOID in the exclusion window
	if selected == models.JudgeVoid && strings.Contains(question, council.SilenceSentinel) {
		selected = o.selector.Next(nextTurn, append(recentJudges, models.JudgeVoid), lastResponse, recentMessages)
		question, err = o.generateQuestion(ctx, snap, selected, nextTurn)
		if err != nil {
			return nil, err
		}
	}

	judge := selected
	if _, err := o.repo.Messages.AppendMessage(ctx, &models.Message{
		InterviewID: interviewID,
		Role:        models.RoleJudge,
		JudgeName:   &judge,
		Content:     question,
		TurnNumber:  nextTurn,
	}); err != nil {
		return nil, fmt.Errorf("append question: %w", err)
	}

	var startedAt *int64
	if iv.Status == models.InterviewPending {
		t := time.Now().UTC().Unix()
		startedAt = &t
	}
	if err := o.repo.Interviews.UpdateTurnState(ctx, interviewID, nextTurn, selected, models.InterviewInProgress, startedAt); err != nil {
		return nil, fmt.Errorf("update turn state: %w", err)
	}

	if err := o.repo.Applications.UpdateApplicationStatus(ctx, iv.ApplicationID, models.ApplicationInterviewing, nil); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	o.logger.Info("question asked",
		slog.String("interview_id", interviewID),
		slog.String("judge", string(selected)),
		slog.Int("turn", nextTurn),
	)

	return &QuestionResult{Judge: selected, Question: question}, nil
}

// shouldClose evaluates the closure conditions for the upcoming turn: the
// hard cap, a probabilistic soft cap, or closure-sounding language from the
// judges themselves (guarded by a minimum turn so an early stray farewell
// does not end the interview).
func (o *Orchestrator) shouldClose(snap *Snapshot, nextTurn int) bool {
	if nextTurn > o.cfg.HardTurnCap {
		return true
	}
	if nextTurn > o.cfg.SoftTurnCap && o.rng.Float64() < o.cfg.SoftCloseChance {
		return true
	}

	var judgeContents []string
	for _, m := range snap.Messages {
		if m.Role == models.RoleJudge {
			judgeContents = append(judgeContents, m.Content)
		}
	}
	if len(judgeContents) > 3 {
		judgeContents = judgeContents[len(judgeContents)-3:]
	}
	for _, c := range judgeContents {
		if closureSignalPattern.MatchString(c) && nextTurn > o.cfg.MinClosureTurn {
			return true
		}
	}
	return false
}

// Respond records the applicant's answer to the pending question, running
// red flag analysis and the consistency check first. Returns the turn number
// the answer completed.
func (o *Orchestrator) Respond(ctx context.Context, interviewID, response string) (int, error) {
	snap, err := o.loadSnapshot(ctx, interviewID)
	if err != nil {
		return 0, err
	}
	iv := snap.Interview

	if iv.Status != models.InterviewInProgress {
		return 0, ErrNotInProgress
	}

	n := len(snap.Messages)
	if n == 0 || snap.Messages[n-1].Role != models.RoleJudge {
		return 0, ErrNoPendingQuestion
	}
	pending := snap.Messages[n-1]

	flags := redflags.Analyze(response, pending.Content, pending.TurnNumber, snap.Agent.Name)
	if f := redflags.CheckConsistency(iv.Metadata.KeyClaims, response); f != nil {
		f.TurnNumber = pending.TurnNumber
		flags = append(flags, *f)
	}

	skillCheck := redflags.CheckSkillSource(response, pending.Content)

	if len(flags) > 0 || skillCheck.IsVerificationQuestion {
		md := redflags.Merge(iv.Metadata, flags)
		if skillCheck.IsVerificationQuestion {
			md.SkillSource = skillCheck.MentionedSource
			valid := skillCheck.ValidSource
			md.SkillVerified = &valid
		}
		if err := redflags.ValidateMetadata(ctx, md); err != nil {
			return 0, fmt.Errorf("validate metadata: %w", err)
		}
		if err := o.repo.Interviews.UpdateInterviewMetadata(ctx, interviewID, md); err != nil {
			return 0, fmt.Errorf("update metadata: %w", err)
		}
	}

	if _, err := o.repo.Messages.AppendMessage(ctx, &models.Message{
		InterviewID: interviewID,
		Role:        models.RoleApplicant,
		Content:     response,
		TurnNumber:  pending.TurnNumber,
	}); err != nil {
		return 0, fmt.Errorf("append response: %w", err)
	}

	if len(flags) > 0 {
		o.logger.Info("red flags recorded",
			slog.String("interview_id", interviewID),
			slog.Int("turn", pending.TurnNumber),
			slog.Int("count", len(flags)),
		)
	}

	return pending.TurnNumber, nil
}

// GenerateDeliberation runs the seven-judge vote fan-out. Judges who already
// voted (from an earlier partial run) are skipped; each goroutine persists
// its own result, so one failed judge never blocks the other six. The
// returned error aggregates per-judge failures; votes that did persist stay
// persisted regardless.
func (o *Orchestrator) GenerateDeliberation(ctx context.Context, interviewID string) ([]models.CouncilVote, error) {
	snap, err := o.loadSnapshot(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if snap.Interview.Status != models.InterviewDeliberating {
		return nil, ErrNotDeliberating
	}

	existing, err := o.repo.Votes.ListVotes(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	voted := make(map[models.JudgeName]bool, len(existing))
	for _, v := range existing {
		voted[v.JudgeName] = true
	}

	transcript := buildTranscript(snap)
	flagsContext := redflags.FormatForDeliberation(snap.Interview.Metadata)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, judge := range council.Order {
		if voted[judge] {
			continue
		}
		wg.Add(1)
		go func(judge models.JudgeName) {
			defer wg.Done()

			prompt := deliberationPrompt(snap, judge, transcript, flagsContext)
			raw, genErr := o.gw.Generate(ctx, judge, council.Directive(judge),
				[]genai.Message{{Role: "user", Content: prompt}}, o.cfg.MaxStatementTokens)
			if genErr != nil {
				o.logger.Error("deliberation generate failed",
					slog.String("interview_id", interviewID),
					slog.String("judge", string(judge)),
					slog.Any("err", genErr),
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", judge, genErr))
				mu.Unlock()
				return
			}

			vote, statement := ParseVote(raw)
			if _, insErr := o.repo.Votes.InsertVote(ctx, &models.CouncilVote{
				InterviewID: interviewID,
				JudgeName:   judge,
				Vote:        vote,
				Statement:   statement,
			}); insErr != nil {
				o.logger.Error("persist vote failed",
					slog.String("interview_id", interviewID),
					slog.String("judge", string(judge)),
					slog.Any("err", insErr),
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", judge, insErr))
				mu.Unlock()
			}
		}(judge)
	}
	wg.Wait()

	votes, listErr := o.repo.Votes.ListVotes(ctx, interviewID)
	if listErr != nil {
		return nil, fmt.Errorf("list votes after deliberation: %w", listErr)
	}
	return votes, errors.Join(errs...)
}

var votePattern = regexp.MustCompile(`(?i)VOTE:\s*(ACCEPT|REJECT|ABSTAIN)`)
var statementPattern = regexp.MustCompile(`(?is)STATEMENT:\s*(.+)`)

// ParseVote extracts the VOTE and STATEMENT lines from a deliberation
// response. Malformed output degrades to an abstain with a placeholder
// statement; one judge's garbage never blocks the deliberation.
func ParseVote(raw string) (models.VoteType, string) {
	vote := models.VoteAbstain
	if m := votePattern.FindStringSubmatch(raw); len(m) > 1 {
		vote = models.VoteType(strings.ToLower(m[1]))
	}

	statement := "No statement provided."
	if m := statementPattern.FindStringSubmatch(raw); len(m) > 1 {
		if s := strings.TrimSpace(m[1]); s != "" {
			statement = s
		}
	}

	return vote, statement
}

func recentJudgeNames(msgs []models.Message, limit int) []models.JudgeName {
	var judges []models.JudgeName
	for _, m := range msgs {
		if m.Role == models.RoleJudge && m.JudgeName != nil {
			judges = append(judges, *m.JudgeName)
		}
	}
	if len(judges) > limit {
		judges = judges[len(judges)-limit:]
	}
	return judges
}

func lastApplicantContent(msgs []models.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleApplicant {
			return msgs[i].Content
		}
	}
	return ""
}

func recentContents(msgs []models.Message, limit int) []string {
	start := 0
	if len(msgs) > limit {
		start = len(msgs) - limit
	}
	out := make([]string, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		out = append(out, m.Content)
	}
	return out
}

func fullContent(msgs []models.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

func containsJudge(judges []models.JudgeName, j models.JudgeName) bool {
	for _, x := range judges {
		if x == j {
			return true
		}
	}
	return false
}
