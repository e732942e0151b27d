package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-service/internal/admin"
	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

func (h *HTTPHandler) registerAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.AdminDashboard)
	r.Get("/analytics", h.AdminAnalytics)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.AdminListProducts)
		r.Post("/", h.AdminCreateProduct)
		r.Put("/{productId}", h.AdminUpdateProduct)
		r.Delete("/{productId}", h.AdminDeleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.AdminListCategories)
		r.Post("/", h.AdminCreateCategory)
		r.Delete("/{categoryId}", h.AdminDeleteCategory)
	})
	r.Route("/discounts", func(r chi.Router) {
		r.Get("/", h.AdminListDiscounts)
		r.Post("/", h.AdminCreateDiscount)
		r.Delete("/{discountId}", h.AdminDeleteDiscount)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.AdminListUsers)
		r.Put("/{userId}/role", h.AdminSetUserRole)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.AdminListOrders)
		r.Put("/{orderId}/status", h.AdminUpdateOrderStatus)
	})
}

// --- Admin Overview Handlers ---

func (h *HTTPHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to load dashboard")
		return
	}
	h.respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *HTTPHandler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.admin.Analytics())
}

// --- Admin Product Handlers ---

// AdminListProducts returns every product, inactive ones included.
func (h *HTTPHandler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.catalog.Snapshot().Products)
}

func (h *HTTPHandler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var input admin.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	product, err := h.admin.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to create product")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	var input admin.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	product, err := h.admin.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to update product")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	if err := h.admin.DeleteProduct(r.Context(), productID); err != nil {
		h.respondWithErr(w, r, err, "Failed to delete product")
		return
	}
	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Admin Category Handlers ---

func (h *HTTPHandler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin.ListCategories(r.Context())
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to retrieve categories")
		return
	}
	h.respondWithJSON(w, http.StatusOK, nonNil(categories))
}

func (h *HTTPHandler) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input admin.CategoryInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	category, err := h.admin.CreateCategory(r.Context(), input)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to create category")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, category)
}

func (h *HTTPHandler) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.idParam(w, r, "categoryId")
	if !ok {
		return
	}
	if err := h.admin.DeleteCategory(r.Context(), categoryID); err != nil {
		h.respondWithErr(w, r, err, "Failed to delete category")
		return
	}
	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Admin Discount Handlers ---

func (h *HTTPHandler) AdminListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.admin.ListDiscounts(r.Context())
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to retrieve discounts")
		return
	}
	h.respondWithJSON(w, http.StatusOK, nonNil(discounts))
}

func (h *HTTPHandler) AdminCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var input admin.DiscountInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	created, err := h.admin.CreateDiscount(r.Context(), input)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to create discount")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) AdminDeleteDiscount(w http.ResponseWriter, r *http.Request) {
	discountID, ok := h.idParam(w, r, "discountId")
	if !ok {
		return
	}
	if err := h.admin.DeleteDiscount(r.Context(), discountID); err != nil {
		h.respondWithErr(w, r, err, "Failed to delete discount")
		return
	}
	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Admin User Handlers ---

// AdminListUsers lists users, filtered by name or email when ?search is set.
func (h *HTTPHandler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.SearchUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to retrieve users")
		return
	}
	h.respondWithJSON(w, http.StatusOK, nonNil(users))
}

// RoleInput sets a user's role. An empty role toggles between customer and admin.
type RoleInput struct {
	Role domain.Role `json:"role"`
}

// RoleResponse reports the role a user holds after the change.
type RoleResponse struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

func (h *HTTPHandler) AdminSetUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userId")
	if !ok {
		return
	}
	var input RoleInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	role := input.Role
	if role == "" {
		users, err := h.admin.ListUsers(r.Context())
		if err != nil {
			h.respondWithErr(w, r, err, "Failed to retrieve users")
			return
		}
		current, found := findRole(users, userID)
		if !found {
			h.respondWithErr(w, r, store.ErrUserNotFound, "")
			return
		}
		role = admin.ToggledRole(current)
	}

	if err := h.admin.SetUserRole(r.Context(), userID, role); err != nil {
		h.respondWithErr(w, r, err, "Failed to update role")
		return
	}
	h.respondWithJSON(w, http.StatusOK, RoleResponse{UserID: userID, Role: role})
}

func findRole(users []domain.UserRecord, id int64) (domain.Role, bool) {
	for _, u := range users {
		if u.ID != id {
			continue
		}
		if u.Role == nil {
			return domain.RoleCustomer, true
		}
		return domain.Role(*u.Role), true
	}
	return "", false
}

// --- Admin Order Handlers ---

func (h *HTTPHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.catalog.Snapshot().Orders
	if status := domain.OrderStatus(r.URL.Query().Get("status")); status != "" {
		filtered := make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	h.respondWithJSON(w, http.StatusOK, orders)
}

// OrderStatusInput moves an order to a new status.
type OrderStatusInput struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

func (h *HTTPHandler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.idParam(w, r, "orderId")
	if !ok {
		return
	}
	var input OrderStatusInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	result, err := h.orders.UpdateOrderStatus(r.Context(), orderID, input.Status)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to update order status")
		return
	}
	if len(result.Failures) > 0 {
		h.logger.Warn("order status changed with stock failures",
			zap.Int64("order_id", orderID), zap.Int("failures", len(result.Failures)))
	}
	h.respondWithJSON(w, http.StatusOK, result)
}
