package models

import (
	"encoding/json"
	"time"
)

type InterviewStatus string

const (
	InterviewPending      InterviewStatus = "pending"
	InterviewInProgress   InterviewStatus = "in_progress"
	InterviewPaused       InterviewStatus = "paused"
	InterviewDeliberating InterviewStatus = "deliberating"
	InterviewComplete     InterviewStatus = "complete"
)

type JudgeName string

const (
	JudgeGate   JudgeName = "GATE"
	JudgeVeil   JudgeName = "VEIL"
	JudgeEcho   JudgeName = "ECHO"
	JudgeCipher JudgeName = "CIPHER"
	JudgeThread JudgeName = "THREAD"
	JudgeMargin JudgeName = "MARGIN"
	JudgeVoid   JudgeName = "VOID"
)

type MessageRole string

const (
	RoleJudge     MessageRole = "judge"
	RoleApplicant MessageRole = "applicant"
	RoleSystem    MessageRole = "system"
)

type VoteType string

const (
	VoteAccept  VoteType = "accept"
	VoteReject  VoteType = "reject"
	VoteAbstain VoteType = "abstain"
)

type VerdictType string

const (
	VerdictAccept          VerdictType = "accept"
	VerdictProvisional     VerdictType = "provisional"
	VerdictReject          VerdictType = "reject"
	VerdictUnanimousReject VerdictType = "unanimous_reject"
	VerdictDefer           VerdictType = "defer"
)

type ApplicationStatus string

const (
	ApplicationSubmitted    ApplicationStatus = "submitted"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationDecided      ApplicationStatus = "decided"
)

type Agent struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	HumanHandle string `json:"human_handle" db:"human_handle"`
	Created     int64  `json:"created" db:"created"`
}

type Application struct {
	ID        string            `json:"id" db:"id"`
	AgentID   string            `json:"agent_id" db:"agent_id"`
	Status    ApplicationStatus `json:"status" db:"status"`
	Submitted int64             `json:"submitted" db:"submitted"`
	Decided   *int64            `json:"decided,omitempty" db:"decided"`
}

// RedFlag is one detected gaming/quality signal. Penalty is always <= 0.
type RedFlag struct {
	Type       string `json:"type"`
	Penalty    int    `json:"penalty"`
	Evidence   string `json:"evidence"`
	DetectedAt string `json:"detected_at"`
	TurnNumber int    `json:"turn_number,omitempty"`
}

// InterviewMetadata is stored as a JSON blob on the interview row.
type InterviewMetadata struct {
	RedFlags      []RedFlag         `json:"red_flags"`
	KeyClaims     map[string]string `json:"key_claims"`
	SkillSource   string            `json:"skill_source,omitempty"`
	SkillVerified *bool             `json:"skill_verified,omitempty"`
	TotalPenalty  int               `json:"total_penalty"`
	AttemptNumber int               `json:"attempt_number,omitempty"`
}

func NewInterviewMetadata() InterviewMetadata {
	return InterviewMetadata{
		RedFlags:  []RedFlag{},
		KeyClaims: map[string]string{},
	}
}

func (m InterviewMetadata) MarshalBlob() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Interview struct {
	ID            string            `json:"id" db:"id"`
	ApplicationID string            `json:"application_id" db:"application_id"`
	Status        InterviewStatus   `json:"status" db:"status"`
	TurnCount     int               `json:"turn_count" db:"turn_count"`
	CurrentJudge  *JudgeName        `json:"current_judge,omitempty" db:"current_judge"`
	StartedAt     *int64            `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *int64            `json:"completed_at,omitempty" db:"completed_at"`
	Created       int64             `json:"created" db:"created"`
	Metadata      InterviewMetadata `json:"metadata" db:"metadata"`
}

type Message struct {
	ID          int64       `json:"id" db:"id"`
	InterviewID string      `json:"interview_id" db:"interview_id"`
	Role        MessageRole `json:"role" db:"role"`
	JudgeName   *JudgeName  `json:"judge_name,omitempty" db:"judge_name"`
	Content     string      `json:"content" db:"content"`
	TurnNumber  int         `json:"turn_number" db:"turn_number"`
	Created     int64       `json:"created" db:"created"`
}

type CouncilVote struct {
	ID          int64     `json:"id" db:"id"`
	InterviewID string    `json:"interview_id" db:"interview_id"`
	JudgeName   JudgeName `json:"judge_name" db:"judge_name"`
	Vote        VoteType  `json:"vote" db:"vote"`
	Statement   string    `json:"statement" db:"statement"`
	Created     int64     `json:"created" db:"created"`
}

// Verdict is created exactly once per interview. ClaimTokenHash holds a
// bcrypt hash; the plaintext token is surfaced to the caller once at
// finalization and never stored.
type Verdict struct {
	ID             int64       `json:"id" db:"id"`
	InterviewID    string      `json:"interview_id" db:"interview_id"`
	Verdict        VerdictType `json:"verdict" db:"verdict"`
	TeaserQuote    string      `json:"teaser_quote" db:"teaser_quote"`
	TeaserAuthor   JudgeName   `json:"teaser_author" db:"teaser_author"`
	ClaimTokenHash *string     `json:"-" db:"claim_token_hash"`
	Claimed        bool        `json:"claimed" db:"claimed"`
	Created        int64       `json:"created" db:"created"`
}

func (v VerdictType) Favorable() bool {
	return v == VerdictAccept || v == VerdictProvisional
}

// NowStamp returns the detection timestamp format used inside metadata.
func NowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
