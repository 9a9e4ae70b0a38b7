package operators

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/auth"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/security"
)

// CreateOperatorInput carries the fields needed to register an operator.
type CreateOperatorInput struct {
	LoginName   string
	DisplayName string
	PIN         string
	Role        enums.OperatorRole
}

// LoginInput is a terminal sign-in attempt.
type LoginInput struct {
	LoginName string
	PIN       string
}

// LoginResult pairs the signed token with the operator it identifies.
type LoginResult struct {
	Token    string           `json:"token"`
	Operator *models.Operator `json:"operator"`
}

// Service defines operator account and sign-in operations.
type Service interface {
	CreateOperator(ctx context.Context, input CreateOperatorInput, actingOperatorID uuid.UUID) (*models.Operator, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	ListOperators(ctx context.Context) ([]models.Operator, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, actingOperatorID uuid.UUID) (*models.Operator, error)
}

type service struct {
	repo     Repository
	uow      *uow.Factory
	jwt      config.JWTConfig
	password config.PasswordConfig
	now      func() time.Time
}

// NewService wires the operator service.
func NewService(repo Repository, factory *uow.Factory, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "operators: repository is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "operators: uow factory is required")
	}
	return &service{
		repo:     repo,
		uow:      factory,
		jwt:      jwtCfg,
		password: passwordCfg,
		now:      time.Now,
	}, nil
}

func (s *service) CreateOperator(ctx context.Context, input CreateOperatorInput, actingOperatorID uuid.UUID) (*models.Operator, error) {
	loginName := strings.ToLower(strings.TrimSpace(input.LoginName))
	displayName := strings.TrimSpace(input.DisplayName)
	if loginName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login name is required")
	}
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	if len(input.PIN) < 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pin must be at least 4 characters")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown operator role")
	}

	hash, err := security.HashPIN(input.PIN, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	operator := &models.Operator{
		LoginName:   loginName,
		DisplayName: displayName,
		PinHash:     hash,
		Role:        input.Role,
		IsActive:    true,
	}
	if _, err := s.repo.WithTx(unit.Tx()).Create(ctx, operator); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "login name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create operator")
	}

	unit.Record(audit.Change{
		Table:     "operators",
		Operation: enums.AuditOperationInsert,
		EntityID:  operator.ID.String(),
		New:       audit.SnapshotOperator(operator),
	})
	if err := unit.SaveChanges(ctx, actingOperatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return operator, nil
}

// Login verifies the PIN and mints an access token. Unknown login names and
// wrong PINs are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	loginName := strings.ToLower(strings.TrimSpace(input.LoginName))
	if loginName == "" || input.PIN == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	operator, err := s.repo.FindByLoginName(ctx, loginName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operator")
	}
	if !operator.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPIN(input.PIN, operator.PinHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		OperatorID: operator.ID,
		LoginName:  operator.LoginName,
		Role:       operator.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &LoginResult{Token: token, Operator: operator}, nil
}

func (s *service) GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	operator, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "operator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operator")
	}
	return operator, nil
}

func (s *service) ListOperators(ctx context.Context) ([]models.Operator, error) {
	result, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list operators")
	}
	return result, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool, actingOperatorID uuid.UUID) (*models.Operator, error) {
	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	operator, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "operator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operator")
	}

	before := audit.SnapshotOperator(operator)
	operator.IsActive = active
	if err := repo.Update(ctx, operator); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update operator")
	}

	unit.Record(audit.Change{
		Table:     "operators",
		Operation: enums.AuditOperationUpdate,
		EntityID:  operator.ID.String(),
		Old:       before,
		New:       audit.SnapshotOperator(operator),
	})
	if err := unit.SaveChanges(ctx, actingOperatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return operator, nil
}
