// Package mock holds in-memory test doubles: a map-backed Store satisfying
// every repository contract, a scripted model gateway, and a deterministic
// random source.
package mock

import (
	"context"
	"sync"

	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/genai"
	"github.com/cosminimum/theregistry/pkg/repository"
)

// Store is a map-backed repository. Setting Err makes every call fail with
// it, for error-path tests.
type Store struct {
	mu           sync.Mutex
	Agents       map[string]*models.Agent
	Applications map[string]*models.Application
	Interviews   map[string]*models.Interview
	Messages     map[string][]models.Message
	Votes        map[string][]models.CouncilVote
	Verdicts     map[string]*models.Verdict
	Err          error

	nextID int64
}

func NewStore() *Store {
	return &Store{
		Agents:       map[string]*models.Agent{},
		Applications: map[string]*models.Application{},
		Interviews:   map[string]*models.Interview{},
		Messages:     map[string][]models.Message{},
		Votes:        map[string][]models.CouncilVote{},
		Verdicts:     map[string]*models.Verdict{},
	}
}

// Repository aggregates the store into the consumer-facing struct.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Agents:       s,
		Applications: s,
		Interviews:   s,
		Messages:     s,
		Votes:        s,
		Verdicts:     s,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AgentRepo

func (s *Store) CreateAgent(ctx context.Context, a *models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Agents[a.ID] = a
	return nil
}

func (s *Store) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Agents[id], nil
}

func (s *Store) GetAgentByHandle(ctx context.Context, handle string) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, a := range s.Agents {
		if a.HumanHandle == handle {
			return a, nil
		}
	}
	return nil, nil
}

// ApplicationRepo

func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Applications[a.ID] = a
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Applications[id], nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedAt *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if a, ok := s.Applications[id]; ok {
		a.Status = status
		if decidedAt != nil {
			a.Decided = decidedAt
		}
	}
	return nil
}

func (s *Store) CountApplicationsByAgent(ctx context.Context, agentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, a := range s.Applications {
		if a.AgentID == agentID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetActiveApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, a := range s.Applications {
		if a.AgentID == agentID && a.Status != models.ApplicationDecided {
			return a, nil
		}
	}
	return nil, nil
}

func (s *Store) GetLatestDecidedApplicationByAgent(ctx context.Context, agentID string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var latest *models.Application
	for _, a := range s.Applications {
		if a.AgentID != agentID || a.Status != models.ApplicationDecided {
			continue
		}
		if latest == nil || (a.Decided != nil && latest.Decided != nil && *a.Decided > *latest.Decided) {
			latest = a
		}
	}
	return latest, nil
}

// InterviewRepo

func (s *Store) CreateInterview(ctx context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Interviews[iv.ID] = iv
	return nil
}

func (s *Store) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Interviews[id], nil
}

func (s *Store) GetInterviewByApplication(ctx context.Context, applicationID string) (*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, iv := range s.Interviews {
		if iv.ApplicationID == applicationID {
			return iv, nil
		}
	}
	return nil, nil
}

func (s *Store) ListInterviewsByStatus(ctx context.Context, status models.InterviewStatus) ([]models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Interview
	for _, iv := range s.Interviews {
		if iv.Status == status {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (s *Store) UpdateTurnState(ctx context.Context, id string, turn int, judge models.JudgeName, status models.InterviewStatus, startedAt *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if iv, ok := s.Interviews[id]; ok {
		iv.TurnCount = turn
		iv.CurrentJudge = &judge
		iv.Status = status
		if startedAt != nil {
			iv.StartedAt = startedAt
		}
	}
	return nil
}

func (s *Store) SetInterviewStatus(ctx context.Context, id string, status models.InterviewStatus, completedAt *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if iv, ok := s.Interviews[id]; ok {
		iv.Status = status
		if completedAt != nil {
			iv.CompletedAt = completedAt
		}
	}
	return nil
}

func (s *Store) UpdateInterviewMetadata(ctx context.Context, id string, md models.InterviewMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if iv, ok := s.Interviews[id]; ok {
		iv.Metadata = md
	}
	return nil
}

// MessageRepo

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	m.ID = s.id()
	s.Messages[m.InterviewID] = append(s.Messages[m.InterviewID], *m)
	return m.ID, nil
}

func (s *Store) ListMessages(ctx context.Context, interviewID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]models.Message, len(s.Messages[interviewID]))
	copy(out, s.Messages[interviewID])
	return out, nil
}

func (s *Store) LastMessage(ctx context.Context, interviewID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	msgs := s.Messages[interviewID]
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

// VoteRepo

func (s *Store) InsertVote(ctx context.Context, v *models.CouncilVote) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, existing := range s.Votes[v.InterviewID] {
		if existing.JudgeName == v.JudgeName {
			return 0, nil
		}
	}
	v.ID = s.id()
	s.Votes[v.InterviewID] = append(s.Votes[v.InterviewID], *v)
	return v.ID, nil
}

func (s *Store) ListVotes(ctx context.Context, interviewID string) ([]models.CouncilVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]models.CouncilVote, len(s.Votes[interviewID]))
	copy(out, s.Votes[interviewID])
	return out, nil
}

func (s *Store) CountVotes(ctx context.Context, interviewID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.Votes[interviewID]), nil
}

// VerdictRepo

func (s *Store) InsertVerdict(ctx context.Context, v *models.Verdict) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	v.ID = s.id()
	s.Verdicts[v.InterviewID] = v
	return v.ID, nil
}

func (s *Store) GetVerdictByInterview(ctx context.Context, interviewID string) (*models.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Verdicts[interviewID], nil
}

func (s *Store) MarkVerdictClaimed(ctx context.Context, interviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if v, ok := s.Verdicts[interviewID]; ok {
		v.Claimed = true
	}
	return nil
}

// GatewayCall records one Generate invocation.
type GatewayCall struct {
	Judge  models.JudgeName
	System string
}

// Gateway is a scripted model gateway. Responses maps a judge to its canned
// output; judges without an entry get Default.
type Gateway struct {
	mu        sync.Mutex
	Responses map[models.JudgeName]string
	Default   string
	Errs      map[models.JudgeName]error
	Calls     []GatewayCall
}

func NewGateway(defaultResponse string) *Gateway {
	return &Gateway{
		Responses: map[models.JudgeName]string{},
		Default:   defaultResponse,
		Errs:      map[models.JudgeName]error{},
	}
}

func (g *Gateway) Generate(ctx context.Context, judge models.JudgeName, system string, history []genai.Message, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Judge: judge, System: system})
	if err, ok := g.Errs[judge]; ok {
		return "", err
	}
	if resp, ok := g.Responses[judge]; ok {
		return resp, nil
	}
	return g.Default, nil
}

// SeqRand replays a fixed sequence of draws, cycling when exhausted.
type SeqRand struct {
	Values []float64
	i      int
}

func NewSeqRand(values ...float64) *SeqRand {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &SeqRand{Values: values}
}

func (r *SeqRand) Float64() float64 {
	v := r.Values[r.i%len(r.Values)]
	r.i++
	return v
}
