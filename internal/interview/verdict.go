package interview

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/models"
)

// penaltyFloor is the worst accumulated penalty a unanimous accept can
// survive and still reach the acceptance roll.
const penaltyFloor = -2

// VerdictResult carries the persisted verdict plus the one-time claim token.
// ClaimToken is only populated for favorable verdicts and is never stored in
// clear; this struct is the only place the caller ever sees it.
type VerdictResult struct {
	Verdict    *models.Verdict
	ClaimToken string
}

// FinalizeVerdict derives and persists the verdict once all seven votes are
// in. Calling it again after a verdict exists is a no-op that returns the
// stored verdict without a claim token.
func (o *Orchestrator) FinalizeVerdict(ctx context.Context, interviewID string) (*VerdictResult, error) {
	snap, err := o.loadSnapshot(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	if existing, err := o.repo.Verdicts.GetVerdictByInterview(ctx, interviewID); err != nil {
		return nil, fmt.Errorf("get verdict: %w", err)
	} else if existing != nil {
		// A crash between the verdict insert and the status writes leaves a
		// stored verdict with the interview still deliberating; finish the
		// transition on retry.
		if snap.Interview.Status != models.InterviewComplete {
			completed := time.Now().UTC().Unix()
			if err := o.repo.Interviews.SetInterviewStatus(ctx, interviewID, models.InterviewComplete, &completed); err != nil {
				return nil, fmt.Errorf("complete interview: %w", err)
			}
			if err := o.repo.Applications.UpdateApplicationStatus(ctx, snap.Interview.ApplicationID, models.ApplicationDecided, &completed); err != nil {
				return nil, fmt.Errorf("decide application: %w", err)
			}
		}
		return &VerdictResult{Verdict: existing}, nil
	}

	votes, err := o.repo.Votes.ListVotes(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	if len(votes) < len(council.Order) {
		return nil, fmt.Errorf("%w: %d of %d", ErrVotesIncomplete, len(votes), len(council.Order))
	}

	roll := o.rng.Float64()
	verdictType := DeriveVerdict(votes, snap.Interview.Metadata.TotalPenalty, roll, o.cfg.BaseAcceptanceRate)
	teaserQuote, teaserAuthor := ChooseTeaser(votes, verdictType)

	verdict := &models.Verdict{
		InterviewID:  interviewID,
		Verdict:      verdictType,
		TeaserQuote:  teaserQuote,
		TeaserAuthor: teaserAuthor,
	}

	var claimToken string
	if verdictType.Favorable() {
		claimToken, err = NewClaimToken()
		if err != nil {
			return nil, fmt.Errorf("claim token: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(claimToken), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash claim token: %w", err)
		}
		h := string(hash)
		verdict.ClaimTokenHash = &h
	}

	if _, err := o.repo.Verdicts.InsertVerdict(ctx, verdict); err != nil {
		return nil, fmt.Errorf("insert verdict: %w", err)
	}

	completed := time.Now().UTC().Unix()
	if err := o.repo.Interviews.SetInterviewStatus(ctx, interviewID, models.InterviewComplete, &completed); err != nil {
		return nil, fmt.Errorf("complete interview: %w", err)
	}
	decided := completed
	if err := o.repo.Applications.UpdateApplicationStatus(ctx, snap.Interview.ApplicationID, models.ApplicationDecided, &decided); err != nil {
		return nil, fmt.Errorf("decide application: %w", err)
	}

	o.logger.Info("verdict finalized",
		slog.String("interview_id", interviewID),
		slog.String("verdict", string(verdictType)),
		slog.Int("total_penalty", snap.Interview.Metadata.TotalPenalty),
	)

	return &VerdictResult{Verdict: verdict, ClaimToken: claimToken}, nil
}

// DeriveVerdict maps the vote tally, the accumulated penalty, and one
// uniform roll to a verdict. Acceptance requires unanimity, a penalty no
// worse than the floor, and a winning roll; the provisional band is three
// times the base rate.
func DeriveVerdict(votes []models.CouncilVote, totalPenalty int, roll, baseRate float64) models.VerdictType {
	accepts, rejects := 0, 0
	for _, v := range votes {
		switch v.Vote {
		case models.VoteAccept:
			accepts++
		case models.VoteReject:
			rejects++
		}
	}

	total := len(votes)
	switch {
	case rejects == total:
		return models.VerdictUnanimousReject
	case accepts == total && totalPenalty >= penaltyFloor:
		switch {
		case roll <= baseRate:
			return models.VerdictAccept
		case roll <= baseRate*3:
			return models.VerdictProvisional
		default:
			return models.VerdictReject
		}
	default:
		// mixed votes, abstentions, or a unanimous accept dragged down by
		// penalties all land here
		return models.VerdictReject
	}
}

// ChooseTeaser picks the public one-line quote attached to the verdict.
// VOID's statement wins when it actually voted; otherwise a statement whose
// vote matches the verdict's direction.
func ChooseTeaser(votes []models.CouncilVote, verdict models.VerdictType) (quote string, author models.JudgeName) {
	for _, v := range votes {
		if v.JudgeName == models.JudgeVoid && v.Vote != models.VoteAbstain {
			return v.Statement, v.JudgeName
		}
	}

	want := models.VoteReject
	if verdict.Favorable() {
		want = models.VoteAccept
	}
	for _, v := range votes {
		if v.Vote == want {
			return v.Statement, v.JudgeName
		}
	}

	if len(votes) > 0 {
		return votes[0].Statement, votes[0].JudgeName
	}
	return "", ""
}

// NewClaimToken returns a 32-character hex token from a CSPRNG.
func NewClaimToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
