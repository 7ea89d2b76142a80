package dialog

import (
	"strconv"
	"strings"
)

// Fixed list row ids. Everything the bot can put in an interactive list is
// either one of these or a prefixed id carrying a record key.
const (
	rowMenuProducts   = "menu_products"
	rowMenuCart       = "menu_cart"
	rowMenuOrders     = "menu_orders"
	rowMenuSavedOrder = "menu_saved_order"

	rowCartFinalize = "cart_finalize"
	rowCartAddMore  = "cart_add_more"
	rowCartClear    = "cart_clear"

	rowResumeCart  = "resume_cart"
	rowRestartCart = "restart_cart"

	rowSaveOrderYes = "save_order_yes"
	rowSaveOrderNo  = "save_order_no"

	rowWaitlistDecline = "notify_stock_no"

	rowStockAdd    = "stock_add"
	rowStockRemove = "stock_remove"

	rowCustomerConfirmYes = "customer_confirm_yes"
	rowCustomerConfirmNo  = "customer_confirm_no"

	rowAdminAddProduct    = "admin_add_product"
	rowAdminAdjustStock   = "admin_adjust_stock"
	rowAdminEditProduct   = "admin_edit_product"
	rowAdminDeleteProduct = "admin_delete_product"
	rowAdminAddCustomer   = "admin_add_customer"
	rowAdminDropCustomer  = "admin_remove_customer"
	rowAdminMinOrder      = "admin_min_order"
	rowAdminCampaign      = "admin_campaign"
)

// Prefixed row ids carry the record they act on.
const (
	prefixProduct        = "product_id_"
	prefixProductManage  = "product_manage_id_"
	prefixNotifyStock    = "notify_stock_id_"
	prefixCustomerRemove = "customer_remove_phone_"
	prefixEditField      = "edit_field_"
	prefixContentType    = "content_type_"
)

// Editable product fields carried by edit_field_ rows.
const (
	editFieldName         = "name"
	editFieldPrice        = "price"
	editFieldContentValue = "content_value"
)

func productRowID(id uint) string {
	return prefixProduct + strconv.FormatUint(uint64(id), 10)
}

func productManageRowID(id uint) string {
	return prefixProductManage + strconv.FormatUint(uint64(id), 10)
}

func notifyStockRowID(id uint) string {
	return prefixNotifyStock + strconv.FormatUint(uint64(id), 10)
}

func customerRemoveRowID(phone string) string {
	return prefixCustomerRemove + phone
}

// parseUintSuffix extracts the numeric id after prefix. ok is false when the
// row does not carry the prefix or the suffix is not a number; such rows are
// no-ops for the caller.
func parseUintSuffix(rowID, prefix string) (uint, bool) {
	if !strings.HasPrefix(rowID, prefix) {
		return 0, false
	}
	raw := strings.TrimPrefix(rowID, prefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseStringSuffix(rowID, prefix string) (string, bool) {
	if !strings.HasPrefix(rowID, prefix) {
		return "", false
	}
	raw := strings.TrimPrefix(rowID, prefix)
	if raw == "" {
		return "", false
	}
	return raw, true
}
