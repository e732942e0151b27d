package domain

import "strings"

// View names a screen of the storefront. Routing itself is a client concern; the server only
// tracks the current view to enforce gating on auth changes.
type View string

const (
	ViewHome             View = "home"
	ViewWishlist         View = "wishlist"
	ViewOrders           View = "orders"
	ViewCheckout         View = "checkout"
	ViewProductDetail    View = "product-detail"
	ViewLogin            View = "login"
	ViewRegister         View = "register"
	ViewProfile          View = "profile"
	ViewAdminDashboard   View = "admin-dashboard"
	ViewAdminInventory   View = "admin-inventory"
	ViewAdminOrders      View = "admin-orders"
	ViewAdminAnalytics   View = "admin-analytics"
	ViewAdminCategories  View = "admin-categories"
	ViewAdminDiscounts   View = "admin-discounts"
	ViewAdminAddProduct  View = "admin-add-product"
	ViewAdminEditProduct View = "admin-edit-product"
	ViewAdminUsers       View = "admin-users"
)

var knownViews = map[View]struct{}{
	ViewHome: {}, ViewWishlist: {}, ViewOrders: {}, ViewCheckout: {}, ViewProductDetail: {},
	ViewLogin: {}, ViewRegister: {}, ViewProfile: {}, ViewAdminDashboard: {}, ViewAdminInventory: {},
	ViewAdminOrders: {}, ViewAdminAnalytics: {}, ViewAdminCategories: {}, ViewAdminDiscounts: {},
	ViewAdminAddProduct: {}, ViewAdminEditProduct: {}, ViewAdminUsers: {},
}

// Known reports whether v is a defined view.
func (v View) Known() bool {
	_, ok := knownViews[v]
	return ok
}

// IsAdmin reports whether v belongs to the back-office.
func (v View) IsAdmin() bool {
	return strings.HasPrefix(string(v), "admin-")
}

// RequiresUser reports whether v must be left when the session ends.
func (v View) RequiresUser() bool {
	return v.IsAdmin() || v == ViewProfile || v == ViewOrders
}
