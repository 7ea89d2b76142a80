package dialog

import (
	"context"
	"errors"
	"strings"

	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/internal/customers"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/internal/settings"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// deleteConfirmWord must be sent verbatim (any case) to delete a product.
const deleteConfirmWord = "SIM"

// Stock adjustment directions, picked from the stock_add/stock_remove rows.
const (
	stockDirectionAdd    = "add"
	stockDirectionRemove = "remove"
)

func (e *Engine) handleAdmin(ctx context.Context, phone string, ev Event) error {
	if ev.ListRowID != "" {
		return e.routeAdminRow(ctx, phone, ev.ListRowID)
	}
	if sess := e.deps.Sessions.Get(phone); sess != nil {
		return e.handleAdminStage(ctx, phone, sess, ev.Body)
	}
	e.sendAdminMenu(ctx, phone)
	return nil
}

func (e *Engine) routeAdminRow(ctx context.Context, phone, rowID string) error {
	switch rowID {
	case rowAdminAddProduct:
		e.deps.Sessions.Begin(phone, session.StageProductName)
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskProductName, nil))
		return nil
	case rowAdminAdjustStock:
		e.deps.Sessions.Begin(phone, session.StageStockProduct)
		e.sendManageProductList(ctx, phone, "Qual produto ajustar?")
		return nil
	case rowAdminEditProduct:
		e.deps.Sessions.Begin(phone, session.StageEditProduct)
		e.sendManageProductList(ctx, phone, "Qual produto editar?")
		return nil
	case rowAdminDeleteProduct:
		e.deps.Sessions.Begin(phone, session.StageDeleteProduct)
		e.sendManageProductList(ctx, phone, "Qual produto excluir?")
		return nil
	case rowAdminAddCustomer:
		e.deps.Sessions.Begin(phone, session.StageCustomerPhone)
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerPhone, nil))
		return nil
	case rowAdminDropCustomer:
		e.deps.Sessions.Begin(phone, session.StageRemoveCustomer)
		e.sendCustomerRemoveList(ctx, phone)
		return nil
	case rowAdminMinOrder:
		e.deps.Sessions.Begin(phone, session.StageMinOrder)
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskMinOrder, nil))
		return nil
	case rowAdminCampaign:
		e.deps.Sessions.Begin(phone, session.StageCampaignText)
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCampaign, nil))
		return nil
	}

	sess := e.deps.Sessions.Get(phone)
	if sess == nil {
		return nil
	}

	if productID, ok := parseUintSuffix(rowID, prefixProductManage); ok {
		return e.handleManagePick(ctx, phone, sess, productID)
	}
	if (rowID == rowStockAdd || rowID == rowStockRemove) && sess.Stage == session.StageStockDirection {
		return e.handleStockDirectionPick(ctx, phone, sess, rowID)
	}
	if sess.Stage == session.StageCustomerConfirm {
		return e.handleCustomerConfirm(ctx, phone, sess, rowID)
	}
	if raw, ok := parseStringSuffix(rowID, prefixContentType); ok && sess.Stage == session.StageProductContentType {
		return e.handleContentTypePick(ctx, phone, sess, raw)
	}
	if field, ok := parseStringSuffix(rowID, prefixEditField); ok && sess.Stage == session.StageEditField {
		return e.handleEditFieldPick(ctx, phone, sess, field)
	}
	if target, ok := parseStringSuffix(rowID, prefixCustomerRemove); ok && sess.Stage == session.StageRemoveCustomer {
		return e.handleCustomerRemoval(ctx, phone, target)
	}

	return nil
}

func (e *Engine) handleManagePick(ctx context.Context, phone string, sess *session.Session, productID uint) error {
	product, err := e.deps.Catalog.Get(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}

	switch sess.Stage {
	case session.StageStockProduct:
		sess.ProductID = product.ID
		sess.Stage = session.StageStockDirection
		e.sendStockDirectionList(ctx, phone, product)
	case session.StageEditProduct:
		sess.ProductID = product.ID
		sess.Stage = session.StageEditField
		e.sendEditFieldList(ctx, phone, product)
	case session.StageDeleteProduct:
		sess.ProductID = product.ID
		sess.Stage = session.StageDeleteConfirm
		e.sendText(ctx, phone, e.copyText(ctx, CopyDeleteConfirm, map[string]string{"produto": product.Name}))
	}
	return nil
}

func (e *Engine) handleStockDirectionPick(ctx context.Context, phone string, sess *session.Session, rowID string) error {
	sess.StockDirection = stockDirectionAdd
	if rowID == rowStockRemove {
		sess.StockDirection = stockDirectionRemove
	}
	sess.Stage = session.StageStockQuantity
	e.sendText(ctx, phone, e.copyText(ctx, CopyAskStockAmount, nil))
	return nil
}

// handleCustomerConfirm resolves the yes/no branch after a successful tax-id
// lookup. Declining keeps the tax id and restarts the manual chain at the
// customer's name.
func (e *Engine) handleCustomerConfirm(ctx context.Context, phone string, sess *session.Session, rowID string) error {
	switch rowID {
	case rowCustomerConfirmYes:
		return e.registerDraftCustomer(ctx, phone, sess)
	case rowCustomerConfirmNo:
		sess.Customer.Name = ""
		sess.Customer.Address = ""
		sess.Customer.City = ""
		sess.Customer.Region = ""
		sess.Stage = session.StageCustomerName
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerName, nil))
		return nil
	}
	return nil
}

func (e *Engine) handleContentTypePick(ctx context.Context, phone string, sess *session.Session, raw string) error {
	contentType, err := enums.ParseContentType(raw)
	if err != nil {
		return nil
	}
	sess.Product.ContentType = contentType
	sess.Stage = session.StageProductContentValue
	e.sendText(ctx, phone, e.copyText(ctx, CopyAskContentValue, nil))
	return nil
}

func (e *Engine) handleEditFieldPick(ctx context.Context, phone string, sess *session.Session, field string) error {
	switch field {
	case editFieldName, editFieldPrice, editFieldContentValue:
	default:
		return nil
	}
	product, err := e.deps.Catalog.Get(ctx, sess.ProductID)
	if err != nil {
		return err
	}
	sess.EditField = field
	sess.Stage = session.StageEditValue
	e.sendText(ctx, phone, e.copyText(ctx, CopyAskEditValue, map[string]string{
		"campo":   field,
		"produto": product.Name,
	}))
	return nil
}

func (e *Engine) handleCustomerRemoval(ctx context.Context, phone, target string) error {
	target = customers.NormalizePhone(target)
	if err := e.deps.Customers.Remove(ctx, target); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			e.deps.Sessions.Clear(phone)
			return nil
		}
		return err
	}
	// drop whatever the customer left behind
	if err := e.deps.Waitlist.Forget(ctx, target); err != nil {
		e.deps.Logger.Warn(ctx, "waitlist cleanup failed: "+err.Error())
	}
	if err := e.deps.Carts.Clear(ctx, target); err != nil {
		e.deps.Logger.Warn(ctx, "cart cleanup failed: "+err.Error())
	}
	e.deps.Sessions.Clear(phone)
	e.sendText(ctx, phone, e.copyText(ctx, CopyCustomerRemoved, nil))
	return nil
}

func (e *Engine) handleAdminStage(ctx context.Context, phone string, sess *session.Session, body string) error {
	body = strings.TrimSpace(body)

	switch sess.Stage {
	case session.StageProductName:
		if body == "" {
			e.sendText(ctx, phone, e.copyText(ctx, CopyAskProductName, nil))
			return nil
		}
		sess.Product.Name = body
		sess.Stage = session.StageProductPrice
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskProductPrice, nil))
		return nil

	case session.StageProductPrice:
		price, ok := parseDecimal(body)
		if !ok || !price.IsPositive() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		sess.Product.Price = price
		sess.Stage = session.StageProductStock
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskProductStock, nil))
		return nil

	case session.StageProductStock:
		stock, ok := parseDecimal(body)
		if !ok || stock.IsNegative() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		sess.Product.Stock = stock
		sess.Stage = session.StageProductContentType
		e.sendContentTypeList(ctx, phone)
		return nil

	case session.StageProductContentValue:
		value, ok := parseDecimal(body)
		if !ok || !value.IsPositive() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		product, err := e.deps.Catalog.Create(ctx, catalog.CreateInput{
			Name:         sess.Product.Name,
			Price:        sess.Product.Price,
			Stock:        sess.Product.Stock,
			ContentType:  sess.Product.ContentType,
			ContentValue: value,
		})
		if err != nil {
			return err
		}
		e.deps.Sessions.Clear(phone)
		e.sendText(ctx, phone, e.copyText(ctx, CopyProductCreated, map[string]string{"produto": product.Name}))
		return nil

	case session.StageStockQuantity:
		return e.handleStockAmount(ctx, phone, sess, body)

	case session.StageCustomerPhone:
		target := customers.NormalizePhone(body)
		if target == "" {
			e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerPhone, nil))
			return nil
		}
		sess.Customer.Phone = target
		sess.Stage = session.StageCustomerTaxID
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerTaxID, nil))
		return nil

	case session.StageCustomerTaxID:
		return e.handleCustomerTaxID(ctx, phone, sess, body)

	case session.StageCustomerName:
		sess.Customer.Name = body
		sess.Stage = session.StageCustomerAddress
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerAddress, nil))
		return nil

	case session.StageCustomerAddress:
		sess.Customer.Address = body
		sess.Stage = session.StageCustomerCity
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerCity, nil))
		return nil

	case session.StageCustomerCity:
		sess.Customer.City = body
		sess.Stage = session.StageCustomerRegion
		e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerRegion, nil))
		return nil

	case session.StageCustomerRegion:
		sess.Customer.Region = body
		return e.registerDraftCustomer(ctx, phone, sess)

	case session.StageMinOrder:
		value, ok := parseDecimal(body)
		if !ok || value.IsNegative() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		if err := e.deps.Settings.Set(ctx, settings.KeyMinOrderValue, value.StringFixed(2)); err != nil {
			return err
		}
		e.deps.Sessions.Clear(phone)
		e.sendText(ctx, phone, e.copyText(ctx, CopyMinOrderSet, map[string]string{"minimo": money(value)}))
		return nil

	case session.StageEditValue:
		return e.handleEditValue(ctx, phone, sess, body)

	case session.StageDeleteConfirm:
		return e.handleDeleteConfirm(ctx, phone, sess, body)

	case session.StageCampaignText:
		e.deps.Sessions.Clear(phone)
		if e.deps.Campaigns == nil {
			return nil
		}
		if err := e.deps.Campaigns.Broadcast(ctx, body); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				e.sendText(ctx, phone, typed.Message())
				return nil
			}
			return err
		}
		e.sendText(ctx, phone, e.copyText(ctx, CopyCampaignSent, nil))
		return nil

	default:
		e.deps.Sessions.Clear(phone)
		e.sendAdminMenu(ctx, phone)
		return nil
	}
}

// handleStockAmount applies the quantity under the direction picked at the
// previous stage. A removal larger than the shelf reports the current stock
// and ends the flow; an addition flushes the product's restock waitlist.
func (e *Engine) handleStockAmount(ctx context.Context, phone string, sess *session.Session, body string) error {
	qty, ok := parseDecimal(body)
	if !ok || !qty.IsPositive() {
		e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
		return nil
	}
	productID := sess.ProductID
	removing := sess.StockDirection == stockDirectionRemove
	e.deps.Sessions.Clear(phone)

	delta := qty
	if removing {
		delta = qty.Neg()
	}
	product, err := e.deps.Catalog.AdjustStock(ctx, productID, delta)
	if err != nil {
		var insufficient *catalog.InsufficientStockError
		if errors.As(err, &insufficient) {
			e.sendText(ctx, phone, e.copyText(ctx, CopyStockRemoveShort, map[string]string{
				"quantidade": amount(qty),
				"produto":    insufficient.ProductName,
				"disponivel": amount(insufficient.Available),
			}))
			return nil
		}
		return err
	}

	e.sendText(ctx, phone, e.copyText(ctx, CopyStockUpdated, map[string]string{
		"produto": product.Name,
		"estoque": amount(product.Stock),
	}))

	if !removing && product.Stock.IsPositive() {
		message := e.copyText(ctx, CopyRestock, map[string]string{"produto": product.Name})
		notified, err := e.deps.Waitlist.Flush(ctx, product.ID, message)
		if err != nil {
			e.deps.Logger.Error(ctx, "waitlist flush failed", err)
			return nil
		}
		for i := 0; i < notified; i++ {
			e.deps.Metrics.IncWaitlistNotified()
		}
	}
	return nil
}

func (e *Engine) handleCustomerTaxID(ctx context.Context, phone string, sess *session.Session, body string) error {
	skip := strings.EqualFold(body, "pular") || strings.EqualFold(body, "skip")
	if !skip && e.deps.Lookup != nil {
		company, err := e.deps.Lookup.CompanyByTaxID(ctx, body)
		if err == nil {
			sess.Customer.TaxID = body
			sess.Customer.Name = company.Name
			sess.Customer.Address = company.Address
			sess.Customer.City = company.City
			sess.Customer.Region = company.Region
			// nothing is persisted until the admin confirms the lookup data
			sess.Stage = session.StageCustomerConfirm
			e.sendCustomerConfirmList(ctx, phone, sess.Customer)
			return nil
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return err
		}
		sess.Customer.TaxID = body
		e.sendText(ctx, phone, e.copyText(ctx, CopyTaxIDNotFound, nil))
	}

	sess.Stage = session.StageCustomerName
	e.sendText(ctx, phone, e.copyText(ctx, CopyAskCustomerName, nil))
	return nil
}

func (e *Engine) registerDraftCustomer(ctx context.Context, phone string, sess *session.Session) error {
	draft := sess.Customer
	e.deps.Sessions.Clear(phone)

	created, err := e.deps.Customers.Register(ctx, customers.RegisterInput{
		Phone:   draft.Phone,
		TaxID:   draft.TaxID,
		Name:    draft.Name,
		Address: draft.Address,
		City:    draft.City,
		Region:  draft.Region,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			e.sendText(ctx, phone, e.copyText(ctx, CopyCustomerDup, nil))
			return nil
		}
		return err
	}

	name := draft.Phone
	if created.Name != nil && *created.Name != "" {
		name = *created.Name
	}
	e.sendText(ctx, phone, e.copyText(ctx, CopyCustomerRegistered, map[string]string{"nome": name}))
	return nil
}

func (e *Engine) handleEditValue(ctx context.Context, phone string, sess *session.Session, body string) error {
	productID := sess.ProductID
	field := sess.EditField
	e.deps.Sessions.Clear(phone)

	input := catalog.UpdateInput{}
	switch field {
	case editFieldName:
		if body == "" {
			e.sendText(ctx, phone, e.copyText(ctx, CopyUnknownOption, nil))
			return nil
		}
		input.Name = &body
	case editFieldPrice:
		price, ok := parseDecimal(body)
		if !ok || !price.IsPositive() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		input.Price = &price
	case editFieldContentValue:
		value, ok := parseDecimal(body)
		if !ok || !value.IsPositive() {
			e.sendText(ctx, phone, e.copyText(ctx, CopyInvalidNumber, nil))
			return nil
		}
		input.ContentValue = &value
	default:
		return nil
	}

	product, err := e.deps.Catalog.Update(ctx, productID, input)
	if err != nil {
		return err
	}
	e.sendText(ctx, phone, e.copyText(ctx, CopyEditDone, map[string]string{"produto": product.Name}))
	return nil
}

// handleDeleteConfirm deletes only on the literal confirmation word, any
// case. Anything else aborts.
func (e *Engine) handleDeleteConfirm(ctx context.Context, phone string, sess *session.Session, body string) error {
	productID := sess.ProductID
	e.deps.Sessions.Clear(phone)

	if !strings.EqualFold(strings.TrimSpace(body), deleteConfirmWord) {
		e.sendText(ctx, phone, e.copyText(ctx, CopyDeleteAborted, nil))
		return nil
	}

	product, err := e.deps.Catalog.Get(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := e.deps.Catalog.Delete(ctx, productID); err != nil {
		return err
	}
	e.sendText(ctx, phone, e.copyText(ctx, CopyDeleteDone, map[string]string{"produto": product.Name}))
	return nil
}
