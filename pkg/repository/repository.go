package repository

import (
	"context"

	"github.com/cosminimum/theregistry/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type AgentRepo interface {
	CreateAgent(ctx context.Context, a *models.Agent) error
	GetAgentByID(ctx context.Context, id string) (*models.Agent, error)
	GetAgentByHandle(ctx context.Context, handle string) (*models.Agent, error)
}

type ApplicationRepo interface {
	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedAt *int64) error
	CountApplicationsByAgent(ctx context.Context, agentID string) (int64, error)
	GetActiveApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error)
	GetLatestDecidedApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error)
}

type InterviewRepo interface {
	CreateInterview(ctx context.Context, iv *models.Interview) error
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	GetInterviewByApplication(ctx context.Context, applicationID string) (*models.Interview, error)
	ListInterviewsByStatus(ctx context.Context, status models.InterviewStatus) ([]models.Interview, error)
	// UpdateTurnState is a single write covering the per-turn mutation:
	// turn_count, current_judge, status, and started_at when non-nil.
	UpdateTurnState(ctx context.Context, id string, turn int, judge models.JudgeName, status models.InterviewStatus, startedAt *int64) error
	SetInterviewStatus(ctx context.Context, id string, status models.InterviewStatus, completedAt *int64) error
	UpdateInterviewMetadata(ctx context.Context, id string, md models.InterviewMetadata) error
}

type MessageRepo interface {
	AppendMessage(ctx context.Context, m *models.Message) (int64, error)
	ListMessages(ctx context.Context, interviewID string) ([]models.Message, error)
	LastMessage(ctx context.Context, interviewID string) (*models.Message, error)
}

type VoteRepo interface {
	// InsertVote records one judge's vote. A vote already present for
	// (interview, judge) is left untouched and does not error, so a retried
	// deliberation never double-votes.
	InsertVote(ctx context.Context, v *models.CouncilVote) (int64, error)
	ListVotes(ctx context.Context, interviewID string) ([]models.CouncilVote, error)
	CountVotes(ctx context.Context, interviewID string) (int, error)
}

type VerdictRepo interface {
	InsertVerdict(ctx context.Context, v *models.Verdict) (int64, error)
	GetVerdictByInterview(ctx context.Context, interviewID string) (*models.Verdict, error)
	MarkVerdictClaimed(ctx context.Context, interviewID string) error
}

// Repository aggregates the per-entity contracts for consumers that need
// several of them (orchestrator, handlers, ticker).
type Repository struct {
	Agents       AgentRepo
	Applications ApplicationRepo
	Interviews   InterviewRepo
	Messages     MessageRepo
	Votes        VoteRepo
	Verdicts     VerdictRepo
}
