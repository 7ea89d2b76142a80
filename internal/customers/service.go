package customers

import (
	"context"
	"strings"

	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Service defines customer record operations.
type Service interface {
	Get(ctx context.Context, phone string) (*models.Customer, error)
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	Update(ctx context.Context, phone string, input UpdateInput) (*models.Customer, error)
	Remove(ctx context.Context, phone string) error
	List(ctx context.Context) ([]models.Customer, error)
	SetHumanMode(ctx context.Context, phone string, on bool) error
}

// RegisterInput carries the fields of a new customer. Only Phone is required;
// auto-registration fills just Phone and Name from the chat.
type RegisterInput struct {
	Phone   string
	TaxID   string
	Name    string
	Address string
	City    string
	Region  string
}

// UpdateInput carries optional customer field updates.
type UpdateInput struct {
	TaxID   *string
	Name    *string
	Address *string
	City    *string
	Region  *string
}

type service struct {
	repo Repository
}

// NewService wires customer dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns the customer, or a NotFound error when the phone is unknown.
func (s *service) Get(ctx context.Context, phone string) (*models.Customer, error) {
	customer, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get customer")
	}
	return customer, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	phone := NormalizePhone(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}

	customer := &models.Customer{Phone: phone}
	if input.TaxID != "" {
		customer.TaxID = &input.TaxID
	}
	if input.Name != "" {
		customer.Name = &input.Name
	}
	if input.Address != "" {
		customer.Address = &input.Address
	}
	if input.City != "" {
		customer.City = &input.City
	}
	if input.Region != "" {
		customer.Region = &input.Region
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register customer")
	}
	return customer, nil
}

func (s *service) Update(ctx context.Context, phone string, input UpdateInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if input.TaxID != nil {
		customer.TaxID = input.TaxID
	}
	if input.Name != nil {
		customer.Name = input.Name
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if input.City != nil {
		customer.City = input.City
	}
	if input.Region != nil {
		customer.Region = input.Region
	}
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

func (s *service) Remove(ctx context.Context, phone string) error {
	if _, err := s.Get(ctx, phone); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove customer")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, nil
}

func (s *service) SetHumanMode(ctx context.Context, phone string, on bool) error {
	affected, err := s.repo.SetHumanMode(ctx, phone, on)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set human mode")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil
}

// NormalizePhone strips the chat suffix and non-digit characters so the same
// customer always keys to the same row.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if at := strings.Index(raw, "@"); at >= 0 {
		raw = raw[:at]
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
