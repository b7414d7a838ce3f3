package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/repository"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
)

// memoryStore mimics the database constraints the services rely on:
// one claim per character, one pending request per character, single-use codes.
type memoryStore struct {
	mu         sync.Mutex
	seq        int
	characters map[int64]*models.Character
	claims     map[int64]*models.Claim
	codes      map[string]*models.ClaimCode
	requests   map[string]*models.ClaimRequest
	goals      map[string]*models.Goal
	roles      map[int64]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		characters: make(map[int64]*models.Character),
		claims:     make(map[int64]*models.Claim),
		codes:      make(map[string]*models.ClaimCode),
		requests:   make(map[string]*models.ClaimRequest),
		goals:      make(map[string]*models.Goal),
		roles:      make(map[int64]string),
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) addCharacter(c models.Character) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.WomID] = &c
}

func (m *memoryStore) claimCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claims)
}

// insertClaimLocked must be called with mu held.
func (m *memoryStore) insertClaimLocked(claim *models.Claim) error {
	if _, exists := m.claims[claim.WomID]; exists {
		return repository.ErrClaimExists
	}
	claim.ID = m.nextID("claim")
	stored := *claim
	m.claims[claim.WomID] = &stored
	return nil
}

type characterStoreStub struct{ *memoryStore }

func (s characterStoreStub) FindByWomID(ctx context.Context, womID int64) (*models.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[womID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (s characterStoreStub) ListVisible(ctx context.Context) ([]models.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Character, 0, len(s.characters))
	for _, c := range s.characters {
		if !c.Hidden {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WomID < out[j].WomID })
	return out, nil
}

func (s characterStoreStub) UpdateRole(ctx context.Context, womID int64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[womID]
	if !ok {
		return sql.ErrNoRows
	}
	c.CurrentRole = role
	return nil
}

func (s characterStoreStub) UpdateStats(ctx context.Context, update models.CharacterStatsUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[update.WomID]
	if !ok {
		return sql.ErrNoRows
	}
	if update.DisplayName != "" {
		c.DisplayName = update.DisplayName
	}
	c.CurrentExperience = update.CurrentExperience
	c.EHB = update.EHB
	c.NotFoundUpstream = update.NotFoundUpstream
	c.UpdatedAt = update.UpdatedAt
	return nil
}

func (s characterStoreStub) MarkNotFound(ctx context.Context, womID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[womID]
	if !ok {
		return sql.ErrNoRows
	}
	c.NotFoundUpstream = true
	return nil
}

type claimStoreStub struct{ *memoryStore }

func (s claimStoreStub) ExistsByWomID(ctx context.Context, womID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claims[womID]
	return ok, nil
}

func (s claimStoreStub) HeldBy(ctx context.Context, accountID string, womID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[womID]
	return ok && c.AccountID == accountID, nil
}

type codeStoreStub struct{ *memoryStore }

func (s codeStoreStub) Create(ctx context.Context, code *models.ClaimCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[code.Code]; exists {
		return repository.ErrCodeCollision
	}
	stored := *code
	s.codes[code.Code] = &stored
	return nil
}

func (s codeStoreStub) ListByWomID(ctx context.Context, womID int64) ([]models.ClaimCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ClaimCode, 0)
	for _, c := range s.codes {
		if c.WomID == womID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s codeStoreStub) Redeem(ctx context.Context, params repository.RedeemParams) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[params.Code]
	if !ok || code.Consumed {
		return nil, repository.ErrCodeUnavailable
	}
	if params.Validate != nil {
		locked := *code
		if err := params.Validate(&locked); err != nil {
			return nil, err
		}
	}
	claim := &models.Claim{AccountID: params.AccountID, WomID: code.WomID, Source: models.ClaimSourceCode, CreatedAt: params.At}
	if err := s.insertClaimLocked(claim); err != nil {
		return nil, err
	}
	code.Consumed = true
	consumer := params.AccountID
	at := params.At
	code.ConsumedBy = &consumer
	code.ConsumedAt = &at
	return claim, nil
}

type requestStoreStub struct{ *memoryStore }

func (s requestStoreStub) seed(req models.ClaimRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = &req
}

func (s requestStoreStub) Create(ctx context.Context, request *models.ClaimRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.WomID == request.WomID && r.Status == models.ClaimRequestPending {
			return repository.ErrPendingExists
		}
	}
	request.ID = s.nextID("req")
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (s requestStoreStub) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *r
	return &copy, nil
}

func (s requestStoreStub) HasPending(ctx context.Context, womID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.WomID == womID && r.Status == models.ClaimRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (s requestStoreStub) List(ctx context.Context, filter models.ClaimRequestFilter) ([]models.ClaimRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ClaimRequest, 0)
	for _, r := range s.requests {
		if filter.AccountID != "" && r.AccountID != filter.AccountID {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, st := range filter.Status {
				if r.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s requestStoreStub) Approve(ctx context.Context, params repository.ProcessParams) (*models.ClaimRequest, *models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[params.ID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if r.Status != models.ClaimRequestPending {
		return nil, nil, repository.ErrRequestNotPending
	}
	claim := &models.Claim{AccountID: r.AccountID, WomID: r.WomID, Source: models.ClaimSourceRequest, CreatedAt: params.At}
	if err := s.insertClaimLocked(claim); err != nil {
		return nil, nil, err
	}
	r.Status = models.ClaimRequestApproved
	by, at := params.ProcessedBy, params.At
	r.ProcessedBy = &by
	r.ProcessedAt = &at
	copy := *r
	return &copy, claim, nil
}

func (s requestStoreStub) Deny(ctx context.Context, params repository.ProcessParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[params.ID]
	if !ok || r.Status != models.ClaimRequestPending {
		return repository.ErrRequestNotPending
	}
	r.Status = models.ClaimRequestDenied
	return nil
}

type goalStoreStub struct {
	*memoryStore
	updates int
}

func (s *goalStoreStub) Create(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	goal.ID = s.nextID("goal")
	stored := *goal
	s.goals[goal.ID] = &stored
	return nil
}

func (s *goalStoreStub) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *g
	return &copy, nil
}

func (s *goalStoreStub) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Goal, 0)
	for _, g := range s.goals {
		if filter.AccountID != "" && g.AccountID != filter.AccountID {
			continue
		}
		if filter.WomID != 0 && g.WomID != filter.WomID {
			continue
		}
		if filter.OnlyOpen && g.Completed {
			continue
		}
		if filter.OnlyPublic && !g.IsPublic {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *goalStoreStub) ListOpen(ctx context.Context, accountID string, womID int64) ([]models.Goal, error) {
	return s.List(ctx, models.GoalFilter{AccountID: accountID, WomID: womID, OnlyOpen: true})
}

func (s *goalStoreStub) UpdateProgress(ctx context.Context, update models.GoalProgressUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[update.ID]
	if !ok {
		return false, sql.ErrNoRows
	}
	s.updates++
	g.CurrentValue = update.CurrentValue
	g.UpdatedAt = update.At
	if update.Complete && !g.Completed {
		g.Completed = true
		at := update.At
		g.CompletedAt = &at
		return true, nil
	}
	return false, nil
}

func (s *goalStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.goals, id)
	return nil
}

type payloadStub struct {
	payload stats.Payload
	err     error
	calls   int
}

func (p *payloadStub) Fetch(ctx context.Context, womID int64) (stats.Payload, error) {
	p.calls++
	return p.payload, p.err
}

func (p *payloadStub) Get(ctx context.Context, womID int64) (stats.Payload, error) {
	return p.Fetch(ctx, womID)
}
