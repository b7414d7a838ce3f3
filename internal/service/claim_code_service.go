package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/repository"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

const (
	// ClaimCodeAlphabet omits characters that are easy to misread (I, O, 0, 1).
	ClaimCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// ClaimCodeLength is the number of characters in an issued code.
	ClaimCodeLength = 8

	maxCodeAttempts = 5
)

// GenerateClaimCode returns a random code drawn from ClaimCodeAlphabet.
func GenerateClaimCode() (string, error) {
	buf := make([]byte, ClaimCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	// 256 is a multiple of the alphabet size, so the modulo is unbiased.
	for i, b := range buf {
		buf[i] = ClaimCodeAlphabet[int(b)%len(ClaimCodeAlphabet)]
	}
	return string(buf), nil
}

type characterReader interface {
	FindByWomID(ctx context.Context, womID int64) (*models.Character, error)
}

type claimReader interface {
	ExistsByWomID(ctx context.Context, womID int64) (bool, error)
	HeldBy(ctx context.Context, accountID string, womID int64) (bool, error)
}

type claimCodeStore interface {
	Create(ctx context.Context, code *models.ClaimCode) error
	ListByWomID(ctx context.Context, womID int64) ([]models.ClaimCode, error)
	Redeem(ctx context.Context, params repository.RedeemParams) (*models.Claim, error)
}

// ClaimCodeService issues and redeems single-use claim codes.
type ClaimCodeService struct {
	codes             claimCodeStore
	characters        characterReader
	claims            claimReader
	validator         *validator.Validate
	metrics           *MetricsService
	logger            *zap.Logger
	now               func() time.Time
	generate          func() (string, error)
	defaultExpiryDays int
}

// ClaimCodeServiceOption configures the service.
type ClaimCodeServiceOption func(*ClaimCodeService)

// WithClaimCodeClock overrides the clock used for issue and expiry checks.
func WithClaimCodeClock(now func() time.Time) ClaimCodeServiceOption {
	return func(s *ClaimCodeService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithClaimCodeGenerator overrides code generation.
func WithClaimCodeGenerator(gen func() (string, error)) ClaimCodeServiceOption {
	return func(s *ClaimCodeService) {
		if gen != nil {
			s.generate = gen
		}
	}
}

// WithDefaultExpiryDays sets the expiry applied when a request omits one.
func WithDefaultExpiryDays(days int) ClaimCodeServiceOption {
	return func(s *ClaimCodeService) {
		if days >= 0 {
			s.defaultExpiryDays = days
		}
	}
}

// WithClaimCodeMetrics attaches metrics.
func WithClaimCodeMetrics(metrics *MetricsService) ClaimCodeServiceOption {
	return func(s *ClaimCodeService) {
		s.metrics = metrics
	}
}

// NewClaimCodeService constructs the service.
func NewClaimCodeService(codes claimCodeStore, characters characterReader, claims claimReader, validate *validator.Validate, logger *zap.Logger, opts ...ClaimCodeServiceOption) *ClaimCodeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ClaimCodeService{
		codes:             codes,
		characters:        characters,
		claims:            claims,
		validator:         validate,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
		generate:          GenerateClaimCode,
		defaultExpiryDays: 7,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Issue creates a code for an unclaimed character. Zero expiry days means the
// code never expires.
func (s *ClaimCodeService) Issue(ctx context.Context, actor models.Actor, req dto.IssueClaimCodeRequest) (*models.ClaimCode, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim code payload")
	}
	if _, err := loadCharacter(ctx, s.characters, req.WomID); err != nil {
		return nil, err
	}
	claimed, err := s.claims.ExistsByWomID(ctx, req.WomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check claim")
	}
	if claimed {
		return nil, appErrors.ErrAlreadyClaimed
	}

	days := s.defaultExpiryDays
	if req.ExpiryDays != nil {
		days = *req.ExpiryDays
	}
	issuedAt := s.now()
	code := &models.ClaimCode{
		WomID:    req.WomID,
		IssuedBy: actor.AccountID,
		IssuedAt: issuedAt,
	}
	if days > 0 {
		expires := issuedAt.Add(time.Duration(days) * 24 * time.Hour)
		code.ExpiresAt = &expires
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		value, err := s.generate()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate claim code")
		}
		code.Code = value
		err = s.codes.Create(ctx, code)
		if err == nil {
			s.logger.Info("claim code issued",
				zap.Int64("wom_id", code.WomID),
				zap.String("issued_by", actor.AccountID),
				zap.Int("expiry_days", days))
			return code, nil
		}
		if !errors.Is(err, repository.ErrCodeCollision) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store claim code")
		}
		s.logger.Debug("claim code collision, retrying", zap.Int("attempt", attempt))
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "could not generate a unique claim code")
}

// Redeem consumes a code and binds its character to the actor. A code can be
// redeemed at most once; later attempts fail with InvalidCode.
func (s *ClaimCodeService) Redeem(ctx context.Context, actor models.Actor, req dto.RedeemClaimCodeRequest) (*models.Claim, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid redeem payload")
	}

	now := s.now()
	claim, err := s.codes.Redeem(ctx, repository.RedeemParams{
		Code:      NormalizeClaimCode(req.Code),
		AccountID: actor.AccountID,
		At:        now,
		Validate: func(code *models.ClaimCode) error {
			if code.ExpiredAt(now) {
				return appErrors.ErrCodeExpired
			}
			return nil
		},
	})
	if err != nil {
		s.metrics.RecordClaimOutcome("redeem", outcomeLabel(err))
		switch {
		case errors.Is(err, repository.ErrCodeUnavailable):
			return nil, appErrors.ErrInvalidCode
		case errors.Is(err, repository.ErrClaimExists):
			return nil, appErrors.ErrAlreadyClaimed
		case appErrors.Is(err, appErrors.ErrCodeExpired):
			return nil, appErrors.ErrCodeExpired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem claim code")
	}

	s.metrics.RecordClaimOutcome("redeem", "ok")
	s.metrics.RecordClaimCreated(string(models.ClaimSourceCode))
	s.logger.Info("claim code redeemed",
		zap.Int64("wom_id", claim.WomID),
		zap.String("account_id", actor.AccountID))
	return claim, nil
}

// ListCodes returns the codes issued for a character.
func (s *ClaimCodeService) ListCodes(ctx context.Context, actor models.Actor, womID int64) ([]models.ClaimCode, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	codes, err := s.codes.ListByWomID(ctx, womID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claim codes")
	}
	return codes, nil
}

// NormalizeClaimCode trims and upper-cases user input.
func NormalizeClaimCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func requireAdmin(actor models.Actor) error {
	if !actor.Authenticated() {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	return nil
}

func loadCharacter(ctx context.Context, repo characterReader, womID int64) (*models.Character, error) {
	character, err := repo.FindByWomID(ctx, womID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "character not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load character")
	}
	return character, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrInternal.Code {
		return strings.ToLower(appErr.Code)
	}
	switch {
	case errors.Is(err, repository.ErrCodeUnavailable):
		return "invalid_code"
	case errors.Is(err, repository.ErrClaimExists):
		return "already_claimed"
	case errors.Is(err, repository.ErrPendingExists):
		return "duplicate_pending"
	case errors.Is(err, repository.ErrRequestNotPending):
		return "not_pending"
	}
	return "error"
}
