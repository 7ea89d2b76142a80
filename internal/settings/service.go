package settings

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/db"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Setting keys. These rows are admin-editable at runtime, so every decision
// point reads them fresh instead of caching.
const (
	KeyAdminPhone           = "adminPhone"
	KeyMinOrderValue        = "minOrderValue"
	KeyRegistrationRequired = "registration_required"
	KeyPaymentsEnabled      = "payments_enabled"
)

// Service reads and writes runtime settings with typed accessors for the keys
// the dialogue engine consults.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	AdminPhone(ctx context.Context) (string, error)
	MinOrderValue(ctx context.Context) (decimal.Decimal, error)
	RegistrationRequired(ctx context.Context) (bool, error)
	PaymentsEnabled(ctx context.Context) (bool, error)
}

type service struct {
	repo Repository
}

// NewService wires settings dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	value, err := s.repo.Get(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get setting")
	}
	return value, nil
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key required")
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set setting")
	}
	return nil
}

func (s *service) All(ctx context.Context) (map[string]string, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	return values, nil
}

func (s *service) AdminPhone(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyAdminPhone)
}

// MinOrderValue returns zero when the setting is missing or unparseable, so a
// broken value never blocks checkout entirely.
func (s *service) MinOrderValue(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.Get(ctx, KeyMinOrderValue)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, nil
	}
	return value, nil
}

func (s *service) RegistrationRequired(ctx context.Context) (bool, error) {
	return s.boolSetting(ctx, KeyRegistrationRequired)
}

func (s *service) PaymentsEnabled(ctx context.Context) (bool, error) {
	return s.boolSetting(ctx, KeyPaymentsEnabled)
}

func (s *service) boolSetting(ctx context.Context, key string) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true, nil
	default:
		return false, nil
	}
}
