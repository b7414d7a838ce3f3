package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/repository"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type claimRequestStore interface {
	Create(ctx context.Context, request *models.ClaimRequest) error
	GetByID(ctx context.Context, id string) (*models.ClaimRequest, error)
	HasPending(ctx context.Context, womID int64) (bool, error)
	List(ctx context.Context, filter models.ClaimRequestFilter) ([]models.ClaimRequest, error)
	Approve(ctx context.Context, params repository.ProcessParams) (*models.ClaimRequest, *models.Claim, error)
	Deny(ctx context.Context, params repository.ProcessParams) error
}

// ClaimRequestService runs the admin-reviewed claim workflow:
// pending -> approved or pending -> denied, both terminal.
type ClaimRequestService struct {
	requests   claimRequestStore
	characters characterReader
	claims     claimReader
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// ClaimRequestServiceOption configures the service.
type ClaimRequestServiceOption func(*ClaimRequestService)

// WithClaimRequestClock overrides the clock used for timestamps.
func WithClaimRequestClock(now func() time.Time) ClaimRequestServiceOption {
	return func(s *ClaimRequestService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithClaimRequestMetrics attaches metrics.
func WithClaimRequestMetrics(metrics *MetricsService) ClaimRequestServiceOption {
	return func(s *ClaimRequestService) {
		s.metrics = metrics
	}
}

// NewClaimRequestService constructs the service.
func NewClaimRequestService(requests claimRequestStore, characters characterReader, claims claimReader, validate *validator.Validate, logger *zap.Logger, opts ...ClaimRequestServiceOption) *ClaimRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ClaimRequestService{
		requests:   requests,
		characters: characters,
		claims:     claims,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit files a pending request for the actor. The character's display name
// is copied into the request as it is at submission time.
func (s *ClaimRequestService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitClaimRequest) (*models.ClaimRequest, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim request payload")
	}
	character, err := loadCharacter(ctx, s.characters, req.WomID)
	if err != nil {
		return nil, err
	}

	pending, err := s.requests.HasPending(ctx, req.WomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		s.metrics.RecordClaimOutcome("submit", "duplicate_pending")
		return nil, appErrors.ErrDuplicatePending
	}
	claimed, err := s.claims.ExistsByWomID(ctx, req.WomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check claim")
	}
	if claimed {
		s.metrics.RecordClaimOutcome("submit", "already_claimed")
		return nil, appErrors.ErrAlreadyClaimed
	}

	request := &models.ClaimRequest{
		AccountID:     actor.AccountID,
		WomID:         req.WomID,
		CharacterName: character.Label(),
		Message:       optionalString(req.Message),
		Status:        models.ClaimRequestPending,
		CreatedAt:     s.now(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrPendingExists) {
			s.metrics.RecordClaimOutcome("submit", "duplicate_pending")
			return nil, appErrors.ErrDuplicatePending
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create claim request")
	}
	s.metrics.RecordClaimOutcome("submit", "ok")
	s.logger.Info("claim request submitted",
		zap.String("request_id", request.ID),
		zap.Int64("wom_id", request.WomID),
		zap.String("account_id", actor.AccountID))
	return request, nil
}

// Process applies an admin decision. Approval creates the claim and moves the
// request to approved in one step; if the character was claimed meanwhile the
// request stays pending and AlreadyClaimed is returned. Processing a terminal
// request returns NotPending.
func (s *ClaimRequestService) Process(ctx context.Context, actor models.Actor, id string, req dto.ProcessClaimRequest) (*dto.ProcessClaimResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid process payload")
	}

	current, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim request")
	}
	if current.Status.Terminal() {
		s.metrics.RecordClaimOutcome("process", "not_pending")
		return nil, appErrors.ErrNotPending
	}

	params := repository.ProcessParams{
		ID:          id,
		ProcessedBy: actor.AccountID,
		AdminNotes:  optionalString(req.AdminNotes),
		At:          s.now(),
	}

	switch req.Decision.Normalize() {
	case dto.DecisionApprove:
		request, claim, err := s.requests.Approve(ctx, params)
		if err != nil {
			s.metrics.RecordClaimOutcome("approve", outcomeLabel(err))
			return nil, s.mapProcessError(err)
		}
		s.metrics.RecordClaimOutcome("approve", "ok")
		s.metrics.RecordClaimCreated(string(models.ClaimSourceRequest))
		s.logger.Info("claim request approved",
			zap.String("request_id", id),
			zap.Int64("wom_id", claim.WomID),
			zap.String("admin_id", actor.AccountID))
		return &dto.ProcessClaimResponse{Request: request, Claim: claim}, nil
	default:
		if err := s.requests.Deny(ctx, params); err != nil {
			s.metrics.RecordClaimOutcome("deny", outcomeLabel(err))
			return nil, s.mapProcessError(err)
		}
		s.metrics.RecordClaimOutcome("deny", "ok")
		s.logger.Info("claim request denied", zap.String("request_id", id), zap.String("admin_id", actor.AccountID))
		current.Status = models.ClaimRequestDenied
		current.ProcessedBy = &params.ProcessedBy
		current.ProcessedAt = &params.At
		current.AdminNotes = params.AdminNotes
		return &dto.ProcessClaimResponse{Request: current}, nil
	}
}

func (s *ClaimRequestService) mapProcessError(err error) error {
	switch {
	case errors.Is(err, repository.ErrRequestNotPending):
		return appErrors.ErrNotPending
	case errors.Is(err, repository.ErrClaimExists):
		return appErrors.ErrAlreadyClaimed
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "claim request not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process claim request")
}

// List returns requests visible to the actor: admins see every request,
// everyone else only their own.
func (s *ClaimRequestService) List(ctx context.Context, actor models.Actor, query dto.ClaimRequestQuery) ([]models.ClaimRequest, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status: "+string(status))
		}
	}
	filter := models.ClaimRequestFilter{Status: query.Status, Limit: query.Limit, Offset: query.Offset}
	if !actor.IsAdmin {
		filter.AccountID = actor.AccountID
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claim requests")
	}
	return requests, nil
}

// Get returns one request, scoped like List.
func (s *ClaimRequestService) Get(ctx context.Context, actor models.Actor, id string) (*models.ClaimRequest, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim request")
	}
	if !actor.CanActFor(request.AccountID) {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
