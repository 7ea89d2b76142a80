package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/internal/chat"
	"github.com/yupvendas/storebot/internal/customers"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

func (e *Engine) handleCustomer(ctx context.Context, phone string, ev Event) error {
	customer, err := e.resolveCustomer(ctx, phone, ev)
	if err != nil {
		return err
	}
	if customer == nil {
		// unregistered and registration is required; the admin was warned
		return nil
	}

	inbound := ev.Body
	if ev.ListRowID != "" {
		inbound = ev.ListRowID
	}
	e.recordChat(ctx, phone, inbound, chat.SenderCustomer)

	if customer.HumanMode {
		return nil
	}

	// Recover a persisted cart after a restart before making any decision
	// that depends on it.
	c := e.deps.Carts.Cart(phone)
	if c.Empty() {
		if c, err = e.deps.Carts.Load(ctx, phone); err != nil {
			return err
		}
	}

	if ev.ListRowID != "" {
		return e.routeCustomerRow(ctx, phone, customer, ev.ListRowID)
	}

	if sess := e.deps.Sessions.Get(phone); sess != nil {
		return e.handleCustomerStage(ctx, phone, sess, ev.Body)
	}

	if !c.Empty() {
		e.sendResumePrompt(ctx, phone, c)
		return nil
	}

	e.sendRootMenu(ctx, phone, customer)
	return nil
}

// resolveCustomer loads the sender's record. Unknown senders are either
// auto-registered from their display name or, when registration is required,
// reported to the admin once with no reply to the sender.
func (e *Engine) resolveCustomer(ctx context.Context, phone string, ev Event) (*models.Customer, error) {
	customer, err := e.deps.Customers.Get(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	required, err := e.deps.Settings.RegistrationRequired(ctx)
	if err != nil {
		return nil, err
	}
	if required {
		adminPhone, err := e.deps.Settings.AdminPhone(ctx)
		if err != nil {
			return nil, err
		}
		if adminPhone != "" {
			warning := e.copyText(ctx, CopyRegistrationWarning, map[string]string{"telefone": phone})
			e.sendText(ctx, adminPhone, warning)
		}
		return nil, nil
	}

	created, err := e.deps.Customers.Register(ctx, customers.RegisterInput{
		Phone: phone,
		Name:  ev.SenderName,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (e *Engine) routeCustomerRow(ctx context.Context, phone string, customer *models.Customer, rowID string) error {
	switch rowID {
	case rowMenuProducts, rowCartAddMore:
		e.sendProductList(ctx, phone)
		return nil
	case rowMenuCart, rowResumeCart:
		e.sendCartView(ctx, phone, e.deps.Carts.Cart(phone))
		return nil
	case rowMenuOrders:
		return e.sendOrderHistory(ctx, phone)
	case rowMenuSavedOrder:
		return e.loadSavedOrder(ctx, phone)
	case rowCartClear, rowRestartCart:
		if err := e.deps.Carts.Clear(ctx, phone); err != nil {
			return err
		}
		e.deps.Sessions.Clear(phone)
		if rowID == rowCartClear {
			e.replyCustomer(ctx, phone, e.copyText(ctx, CopyCartCleared, nil))
		} else {
			e.sendRootMenu(ctx, phone, customer)
		}
		return nil
	case rowCartFinalize:
		return e.finalizeOrder(ctx, phone, customer)
	case rowSaveOrderYes:
		return e.saveStandardOrder(ctx, phone)
	case rowSaveOrderNo:
		e.deps.Sessions.Clear(phone)
		e.sendRootMenu(ctx, phone, customer)
		return nil
	case rowWaitlistDecline:
		return nil
	}

	if productID, ok := parseUintSuffix(rowID, prefixProduct); ok {
		return e.startQuantityStage(ctx, phone, productID)
	}
	if productID, ok := parseUintSuffix(rowID, prefixNotifyStock); ok {
		return e.subscribeWaitlist(ctx, phone, productID)
	}

	// unmatched rows are no-ops
	return nil
}

func (e *Engine) startQuantityStage(ctx context.Context, phone string, productID uint) error {
	product, err := e.deps.Catalog.Get(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	sess := e.deps.Sessions.Begin(phone, session.StageQuantity)
	sess.ProductID = product.ID
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopyAskQuantity, map[string]string{"produto": product.Name}))
	return nil
}

func (e *Engine) handleCustomerStage(ctx context.Context, phone string, sess *session.Session, body string) error {
	switch sess.Stage {
	case session.StageQuantity:
		return e.handleQuantityInput(ctx, phone, sess, body)
	default:
		// stale stage, drop it and start over
		e.deps.Sessions.Clear(phone)
		e.sendRootMenu(ctx, phone, nil)
		return nil
	}
}

// handleQuantityInput applies the quantity to the selected product. Asking
// for more than the shelf holds reports the available amount, offers the
// waitlist and clears the session.
func (e *Engine) handleQuantityInput(ctx context.Context, phone string, sess *session.Session, body string) error {
	qty, ok := parsePositiveInt(body)
	if !ok {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyInvalidQuantity, nil))
		return nil
	}

	product, err := e.deps.Catalog.Get(ctx, sess.ProductID)
	if err != nil {
		e.deps.Sessions.Clear(phone)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			e.replyCustomer(ctx, phone, e.copyText(ctx, CopyUnknownOption, nil))
			return nil
		}
		return err
	}

	if product.Stock.LessThan(decimal.NewFromInt(int64(qty))) {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyOutOfStock, map[string]string{
			"produto":    product.Name,
			"disponivel": amount(product.Stock),
		}))
		e.sendWaitlistOffer(ctx, phone, product)
		e.deps.Sessions.Clear(phone)
		return nil
	}

	c, err := e.deps.Carts.Add(ctx, phone, *product, qty)
	if err != nil {
		return err
	}
	e.deps.Sessions.Clear(phone)
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopyAddedToCart, map[string]string{
		"quantidade": fmt.Sprintf("%d", qty),
		"produto":    product.Name,
	}))
	e.sendCartView(ctx, phone, c)
	return nil
}

func (e *Engine) subscribeWaitlist(ctx context.Context, phone string, productID uint) error {
	product, err := e.deps.Catalog.Get(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	err = e.deps.Waitlist.Subscribe(ctx, phone, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			e.replyCustomer(ctx, phone, e.copyText(ctx, CopyWaitlistDup, nil))
			return nil
		}
		return err
	}
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopyWaitlistJoined, map[string]string{"produto": product.Name}))
	return nil
}

func (e *Engine) sendOrderHistory(ctx context.Context, phone string) error {
	history, err := e.deps.Orders.HistoryByCustomer(ctx, phone, 5)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyNoOrders, nil))
		return nil
	}
	var b strings.Builder
	b.WriteString("🧾 *Seus últimos pedidos:*\n")
	for _, order := range history {
		fmt.Fprintf(&b, "\n*#%d* — %s — R$ %s\n", order.ID, order.CreatedAt.Format("02/01/2006"), money(order.Total))
		for _, item := range order.Items {
			fmt.Fprintf(&b, "  • %dx %s\n", item.Quantity, item.ProductName)
		}
	}
	e.replyCustomer(ctx, phone, b.String())
	return nil
}

// loadSavedOrder replaces the cart with the customer's standard order. Lines
// whose quantity no longer fits current stock are dropped without comment.
func (e *Engine) loadSavedOrder(ctx context.Context, phone string) error {
	items, err := e.deps.Saved.ListByCustomer(ctx, phone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load saved order")
	}
	if len(items) == 0 {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopySavedOrderNone, nil))
		return nil
	}

	loaded := false
	if err := e.deps.Carts.Clear(ctx, phone); err != nil {
		return err
	}
	for _, item := range items {
		product, err := e.deps.Catalog.Get(ctx, item.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return err
		}
		if product.Stock.LessThan(decimal.NewFromInt(int64(item.Quantity))) {
			continue
		}
		if _, err := e.deps.Carts.Add(ctx, phone, *product, item.Quantity); err != nil {
			return err
		}
		loaded = true
	}

	c := e.deps.Carts.Cart(phone)
	if !loaded {
		e.replyCustomer(ctx, phone, e.copyText(ctx, CopyCartEmpty, nil))
		return nil
	}
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopySavedOrderLoad, nil))
	e.sendCartView(ctx, phone, c)
	return nil
}

// saveStandardOrder snapshots the just-placed order as the customer's
// standard order. The cart is already cleared by then, so the lines come from
// the persisted order items referenced by the session.
func (e *Engine) saveStandardOrder(ctx context.Context, phone string) error {
	sess := e.deps.Sessions.Get(phone)
	if sess == nil || sess.Stage != session.StageSaveOrder || sess.OrderID == 0 {
		e.deps.Sessions.Clear(phone)
		return nil
	}
	order, err := e.deps.Orders.Get(ctx, sess.OrderID)
	if err != nil {
		e.deps.Sessions.Clear(phone)
		return err
	}

	items := make([]models.SavedOrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		items = append(items, models.SavedOrderItem{
			CustomerPhone: phone,
			ProductID:     *item.ProductID,
			Quantity:      item.Quantity,
		})
	}
	if err := e.deps.Saved.ReplaceForCustomer(ctx, phone, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save standard order")
	}
	e.deps.Sessions.Clear(phone)
	e.replyCustomer(ctx, phone, e.copyText(ctx, CopySavedOrderDone, nil))
	return nil
}
