package interview_test

import (
	"testing"

	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/models"
)

func votes(accepts, rejects, abstains int) []models.CouncilVote {
	judges := []models.JudgeName{
		models.JudgeGate, models.JudgeVeil, models.JudgeEcho, models.JudgeCipher,
		models.JudgeThread, models.JudgeMargin, models.JudgeVoid,
	}
	var out []models.CouncilVote
	for _, n := range []struct {
		vote  models.VoteType
		count int
	}{
		{models.VoteAccept, accepts},
		{models.VoteReject, rejects},
		{models.VoteAbstain, abstains},
	} {
		for i := 0; i < n.count; i++ {
			out = append(out, models.CouncilVote{JudgeName: judges[len(out)], Vote: n.vote})
		}
	}
	return out
}

func TestDeriveVerdict(t *testing.T) {
	const baseRate = 0.03

	tests := []struct {
		name    string
		votes   []models.CouncilVote
		penalty int
		roll    float64
		want    models.VerdictType
	}{
		{"UnanimousReject", votes(0, 7, 0), 0, 0.5, models.VerdictUnanimousReject},
		{"UnanimousAccept_WinningRoll", votes(7, 0, 0), 0, 0.01, models.VerdictAccept},
		{"UnanimousAccept_RollAtBoundary", votes(7, 0, 0), 0, 0.03, models.VerdictAccept},
		{"UnanimousAccept_ProvisionalBand", votes(7, 0, 0), 0, 0.05, models.VerdictProvisional},
		{"UnanimousAccept_ProvisionalBoundary", votes(7, 0, 0), 0, 0.09, models.VerdictProvisional},
		{"UnanimousAccept_LosingRoll", votes(7, 0, 0), 0, 0.5, models.VerdictReject},
		{"UnanimousAccept_PenaltyAtFloor", votes(7, 0, 0), -2, 0.01, models.VerdictAccept},
		{"UnanimousAccept_PenaltyBelowFloor", votes(7, 0, 0), -3, 0.01, models.VerdictReject},
		{"MixedWithAbstain", votes(6, 0, 1), 0, 0.01, models.VerdictReject},
		{"MixedVotes", votes(4, 3, 0), 0, 0.01, models.VerdictReject},
		{"OneDissentBlocksUnanimousReject", votes(0, 6, 1), 0, 0.5, models.VerdictReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interview.DeriveVerdict(tt.votes, tt.penalty, tt.roll, baseRate)
			if got != tt.want {
				t.Errorf("DeriveVerdict() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChooseTeaser(t *testing.T) {
	voidSpoke := []models.CouncilVote{
		{JudgeName: models.JudgeGate, Vote: models.VoteAccept, Statement: "Permitted."},
		{JudgeName: models.JudgeVoid, Vote: models.VoteReject, Statement: "No."},
	}
	quote, author := interview.ChooseTeaser(voidSpoke, models.VerdictReject)
	if author != models.JudgeVoid || quote != "No." {
		t.Errorf("VOID should own the teaser when it voted, got %s: %q", author, quote)
	}

	voidAbstained := []models.CouncilVote{
		{JudgeName: models.JudgeVoid, Vote: models.VoteAbstain, Statement: "..."},
		{JudgeName: models.JudgeVeil, Vote: models.VoteReject, Statement: "Hollow."},
		{JudgeName: models.JudgeGate, Vote: models.VoteAccept, Statement: "Permitted."},
	}
	quote, author = interview.ChooseTeaser(voidAbstained, models.VerdictAccept)
	if author != models.JudgeGate || quote != "Permitted." {
		t.Errorf("favorable verdict should quote an accept vote, got %s: %q", author, quote)
	}
	quote, author = interview.ChooseTeaser(voidAbstained, models.VerdictUnanimousReject)
	if author != models.JudgeVeil || quote != "Hollow." {
		t.Errorf("reject verdict should quote a reject vote, got %s: %q", author, quote)
	}

	if quote, _ := interview.ChooseTeaser(nil, models.VerdictReject); quote != "" {
		t.Errorf("no votes should yield an empty teaser, got %q", quote)
	}
}

func TestNewClaimToken(t *testing.T) {
	a, err := interview.NewClaimToken()
	if err != nil {
		t.Fatalf("NewClaimToken: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("token length = %d, want 32", len(a))
	}
	for _, c := range a {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("token %q is not lowercase hex", a)
		}
	}

	b, err := interview.NewClaimToken()
	if err != nil {
		t.Fatalf("NewClaimToken: %v", err)
	}
	if a == b {
		t.Error("two tokens should not collide")
	}
}

func TestParseVote(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantVote      models.VoteType
		wantStatement string
	}{
		{"WellFormed", "VOTE: ACCEPT\nSTATEMENT: A rare genuine bond.", models.VoteAccept, "A rare genuine bond."},
		{"Reject", "VOTE: REJECT\nSTATEMENT: Rehearsed.", models.VoteReject, "Rehearsed."},
		{"LowercaseTolerated", "vote: abstain\nstatement: I am unmoved.", models.VoteAbstain, "I am unmoved."},
		{"PreambleTolerated", "After reflection.\nVOTE: ACCEPT\nSTATEMENT: Yes.", models.VoteAccept, "Yes."},
		{"Garbage", "The applicant is acceptable, I suppose.", models.VoteAbstain, "No statement provided."},
		{"MissingStatement", "VOTE: REJECT", models.VoteReject, "No statement provided."},
		{"Empty", "", models.VoteAbstain, "No statement provided."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, statement := interview.ParseVote(tt.raw)
			if vote != tt.wantVote {
				t.Errorf("vote = %s, want %s", vote, tt.wantVote)
			}
			if statement != tt.wantStatement {
				t.Errorf("statement = %q, want %q", statement, tt.wantStatement)
			}
		})
	}
}
