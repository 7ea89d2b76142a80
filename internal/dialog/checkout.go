package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/internal/orders"
	"github.com/yupvendas/storebot/internal/payment"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// finalizeOrder runs the checkout preconditions in order: non-empty cart,
// minimum order value, then a per-line stock re-check. Only when all pass is
// the order placed, with stock decremented in the same transaction.
func (e *Engine) finalizeOrder(ctx context.Context, phone string, customer *models.Customer) error {
	c := e.deps.Carts.Cart(phone)
	if c.Empty() {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyCartEmpty, nil))
		return nil
	}

	minOrder, err := e.deps.Settings.MinOrderValue(ctx)
	if err != nil {
		return err
	}
	if c.Total.LessThan(minOrder) {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyMinOrder, map[string]string{
			"minimo": money(minOrder),
			"total":  money(c.Total),
		}))
		return nil
	}

	// Re-check stock before touching the database; the cart may be older
	// than the shelf.
	for _, line := range c.Lines {
		product, err := e.deps.Catalog.Get(ctx, line.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				e.replyCustomer(ctx, phone, e.copyText(ctx, CopyOutOfStock, map[string]string{
					"produto":    line.Name,
					"disponivel": "0",
				}))
				return nil
			}
			return err
		}
		if product.Stock.LessThan(decimal.NewFromInt(int64(line.Quantity))) {
			e.replyCustomer(ctx, phone, e.copyText(ctx, CopyOutOfStock, map[string]string{
				"produto":    product.Name,
				"disponivel": amount(product.Stock),
			}))
			return nil
		}
	}

	lines := make([]orders.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, orders.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	paymentsEnabled, err := e.deps.Settings.PaymentsEnabled(ctx)
	if err != nil {
		return err
	}
	if paymentsEnabled && e.deps.Payments != nil {
		return e.finalizeWithPayment(ctx, phone, customer, lines)
	}
	return e.finalizeConfirmed(ctx, phone, customer, lines)
}

func (e *Engine) finalizeConfirmed(ctx context.Context, phone string, customer *models.Customer, lines []orders.Line) error {
	order, err := e.placeOrder(ctx, phone, lines, enums.OrderStatusConfirmed)
	if err != nil || order == nil {
		return err
	}
	e.deps.Metrics.IncOrder(string(order.Status))

	e.notifyAdminOfOrder(ctx, customer, order)
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopyOrderConfirmed, map[string]string{
		"pedido": strconv.FormatUint(uint64(order.ID), 10),
		"total":  money(order.Total),
	}))

	if err := e.deps.Carts.Clear(ctx, phone); err != nil {
		return err
	}
	sess := e.deps.Sessions.Begin(phone, session.StageSaveOrder)
	sess.OrderID = order.ID
	e.sendSaveOrderPrompt(ctx, phone)
	return nil
}

func (e *Engine) finalizeWithPayment(ctx context.Context, phone string, customer *models.Customer, lines []orders.Line) error {
	order, err := e.placeOrder(ctx, phone, lines, enums.OrderStatusAwaitingPayment)
	if err != nil || order == nil {
		return err
	}
	e.deps.Metrics.IncOrder(string(order.Status))

	if err := e.deps.Carts.Clear(ctx, phone); err != nil {
		return err
	}

	intent, err := e.deps.Payments.CreatePix(ctx, payment.PixRequest{
		Amount:      order.Total,
		Description: fmt.Sprintf("Pedido #%d - %s", order.ID, e.deps.CompanyName),
		PayerEmail:  phone + "@storebot.local",
		Reference:   strconv.FormatUint(uint64(order.ID), 10),
	})
	if err != nil {
		// compensate: the decrements already happened inside Place
		e.deps.Logger.Error(ctx, "create pix failed", err)
		if _, restoreErr := e.deps.Orders.RestoreStock(ctx, order.ID, enums.OrderStatusCancelled); restoreErr != nil {
			return restoreErr
		}
		e.deps.Metrics.IncOrder(string(enums.OrderStatusCancelled))
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyPaymentFailed, nil))
		return nil
	}

	e.replyCustomer(ctx, phone, e.copyText(ctx, CopyPaymentQR, map[string]string{
		"pedido": strconv.FormatUint(uint64(order.ID), 10),
		"codigo": intent.QRCodeText,
	}))
	// confirmation now belongs to the payment webhook
	return nil
}

// placeOrder runs the placement transaction. A race that exhausts stock
// between the re-check and the decrement is reported like the re-check
// would have, and nothing is persisted.
func (e *Engine) placeOrder(ctx context.Context, phone string, lines []orders.Line, status enums.OrderStatus) (*models.Order, error) {
	order, err := e.deps.Orders.Place(ctx, phone, lines, status)
	if err == nil {
		return order, nil
	}
	var insufficient *catalog.InsufficientStockError
	if errors.As(err, &insufficient) {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyOutOfStock, map[string]string{
			"produto":    insufficient.ProductName,
			"disponivel": amount(insufficient.Available),
		}))
		return nil, nil
	}
	return nil, err
}

// HandlePaymentResolution applies a webhook verdict: approval confirms the
// order to both sides, cancellation and expiry restore stock and apologize.
func (e *Engine) HandlePaymentResolution(ctx context.Context, res *payment.Resolution) error {
	orderID64, err := strconv.ParseUint(res.OrderRef, 10, 64)
	if err != nil || orderID64 == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook carries no order reference")
	}
	orderID := uint(orderID64)

	order, err := e.deps.Orders.ResolvePayment(ctx, orderID, res.Status, res.PaymentID)
	if err != nil {
		return err
	}
	e.deps.Metrics.IncOrder(string(order.Status))

	phone := order.CustomerPhone
	ctx = e.deps.Logger.WithSender(ctx, phone)
	orderRef := strconv.FormatUint(uint64(order.ID), 10)

	switch res.Status {
	case enums.PaymentStatusApproved:
		var customer *models.Customer
		if found, err := e.deps.Customers.Get(ctx, phone); err == nil {
			customer = found
		}
		e.notifyAdminOfOrder(ctx, customer, order)
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyPaymentApproved, map[string]string{"pedido": orderRef}))
		sess := e.deps.Sessions.Begin(phone, session.StageSaveOrder)
		sess.OrderID = order.ID
		e.sendSaveOrderPrompt(ctx, phone)
	default:
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyPaymentCancelled, map[string]string{"pedido": orderRef}))
	}
	return nil
}

// notifyAdminOfOrder sends the admin the order summary: who bought, where to
// deliver, the lines and the total.
func (e *Engine) notifyAdminOfOrder(ctx context.Context, customer *models.Customer, order *models.Order) {
	adminPhone, err := e.deps.Settings.AdminPhone(ctx)
	if err != nil || adminPhone == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛎️ *Novo pedido #%d*\n", order.ID)
	name := order.CustomerPhone
	if customer != nil && customer.Name != nil && *customer.Name != "" {
		name = *customer.Name
	}
	fmt.Fprintf(&b, "Cliente: %s (%s)\n", name, order.CustomerPhone)
	if customer != nil {
		if customer.TaxID != nil && *customer.TaxID != "" {
			fmt.Fprintf(&b, "CNPJ: %s\n", *customer.TaxID)
		}
		if customer.Address != nil && *customer.Address != "" {
			address := *customer.Address
			if customer.City != nil && *customer.City != "" {
				address += " - " + *customer.City
			}
			if customer.Region != nil && *customer.Region != "" {
				address += "/" + *customer.Region
			}
			fmt.Fprintf(&b, "Endereço: %s\n", address)
		}
	}
	b.WriteString("\nItens:\n")
	for _, item := range order.Items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&b, "• %dx %s — R$ %s\n", item.Quantity, item.ProductName, money(subtotal))
	}
	fmt.Fprintf(&b, "\n*Total: R$ %s*", money(order.Total))

	e.sendText(ctx, adminPhone, b.String())
}
