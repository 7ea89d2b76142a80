package orders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Line is one order line at placement time. Name and UnitPrice come from the
// cart snapshot, not from the live product row.
type Line struct {
	ProductID uint
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order lifecycle operations.
type Service interface {
	Place(ctx context.Context, phone string, lines []Line, status enums.OrderStatus) (*models.Order, error)
	RestoreStock(ctx context.Context, orderID uint, status enums.OrderStatus) (*models.Order, error)
	ResolvePayment(ctx context.Context, orderID uint, status enums.PaymentStatus, ref string) (*models.Order, error)
	Get(ctx context.Context, id uint) (*models.Order, error)
	HistoryByCustomer(ctx context.Context, phone string, limit int) ([]models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	TopCustomers(ctx context.Context, limit int) ([]CustomerSales, error)
	Stats(ctx context.Context) (Stats, error)
}

type service struct {
	repo     Repository
	products catalog.Repository
	tx       txRunner
}

// NewService wires order dependencies.
func NewService(repo Repository, products catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

// Place creates the order, snapshots its items and decrements stock for every
// line, all in one transaction. Any guarded decrement miss rolls the whole
// placement back and surfaces which product fell short.
func (s *service) Place(ctx context.Context, phone string, lines []Line, status enums.OrderStatus) (*models.Order, error) {
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ProductID:   &productID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		CustomerPhone: phone,
		Total:         total,
		Status:        status,
		Items:         items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		products := s.products.WithTx(tx)
		for _, line := range lines {
			qty := decimal.NewFromInt(int64(line.Quantity))
			if _, err := products.AdjustStock(ctx, line.ProductID, qty.Neg()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var insufficient *catalog.InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "place order")
		}
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return order, nil
}

// RestoreStock puts every item quantity back on the shelf and moves the order
// to the given status, in one transaction. It reads only the persisted item
// rows, so it is safe to call from a webhook long after the cart is gone.
// Items whose product has since been deleted are skipped. Only orders still
// awaiting payment are restored; anything else is a no-op, so a webhook
// retried by the provider cannot put the same quantities back twice.
func (s *service) RestoreStock(ctx context.Context, orderID uint, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var restored *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusAwaitingPayment {
			restored = order
			return nil
		}
		products := s.products.WithTx(tx)
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			qty := decimal.NewFromInt(int64(item.Quantity))
			if _, err := products.AdjustStock(ctx, *item.ProductID, qty); err != nil {
				if db.IsNotFound(err) {
					continue
				}
				return err
			}
		}
		if _, err := repo.UpdateStatus(ctx, orderID, status, nil); err != nil {
			return err
		}
		order.Status = status
		restored = order
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	return restored, nil
}

// ResolvePayment applies a payment provider resolution to the order. Approval
// marks it paid; cancellation and expiry compensate by restoring stock.
func (s *service) ResolvePayment(ctx context.Context, orderID uint, status enums.PaymentStatus, ref string) (*models.Order, error) {
	switch status {
	case enums.PaymentStatusApproved:
		var refPtr *string
		if ref != "" {
			refPtr = &ref
		}
		affected, err := s.repo.UpdateStatus(ctx, orderID, enums.OrderStatusPaid, refPtr)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if affected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return s.Get(ctx, orderID)
	case enums.PaymentStatusCancelled:
		return s.RestoreStock(ctx, orderID, enums.OrderStatusCancelled)
	case enums.PaymentStatusExpired:
		return s.RestoreStock(ctx, orderID, enums.OrderStatusExpired)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
}

func (s *service) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order")
	}
	return order, nil
}

func (s *service) HistoryByCustomer(ctx context.Context, phone string, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListByCustomer(ctx, phone, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := s.repo.TopProducts(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top products")
	}
	return rows, nil
}

func (s *service) TopCustomers(ctx context.Context, limit int) ([]CustomerSales, error) {
	rows, err := s.repo.TopCustomers(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top customers")
	}
	return rows, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order stats")
	}
	return stats, nil
}
