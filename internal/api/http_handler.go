package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/internal/admin"
	"storefront-service/internal/auth"
	"storefront-service/internal/catalog"
	"storefront-service/internal/discount"
	"storefront-service/internal/domain"
	"storefront-service/internal/inventory"
	"storefront-service/internal/store"
	"storefront-service/internal/storefront"
)

// Clients binds requests to their storefront client.
type Clients interface {
	Client(w http.ResponseWriter, r *http.Request) (*storefront.Client, error)
	Persist(w http.ResponseWriter, r *http.Request, c *storefront.Client) error
}

// CatalogReader serves the current catalog snapshot.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

// OrderStatusUpdater applies an admin status change and its stock side effects.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*inventory.Result, error)
}

// Assistant answers shopper chat messages.
type Assistant interface {
	Reply(ctx context.Context, message string, products []domain.Product) string
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	clients   Clients
	catalog   CatalogReader
	admin     *admin.Service
	orders    OrderStatusUpdater
	assistant Assistant
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// Dependencies groups what the HTTP layer talks to.
type Dependencies struct {
	Clients   Clients
	Catalog   CatalogReader
	Admin     *admin.Service
	Orders    OrderStatusUpdater
	Assistant Assistant
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{
		clients:   deps.Clients,
		catalog:   deps.Catalog,
		admin:     deps.Admin,
		orders:    deps.Orders,
		assistant: deps.Assistant,
		validate:  validator.New(),
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// RegisterRoutes mounts every route on r.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.withClient)

		r.Get("/catalog", h.Catalog)
		r.Get("/categories", h.ListCategories)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{productId}", h.GetProduct)
			r.Get("/{productId}/reviews", h.ListReviews)
			r.Post("/{productId}/reviews", h.SubmitReview)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{productId}", h.UpdateCartItem)
			r.Delete("/items/{productId}", h.RemoveCartItem)
			r.Delete("/", h.ClearCart)
			r.Post("/discount", h.ApplyDiscount)
			r.Delete("/discount", h.RemoveDiscount)
		})
		r.Post("/checkout", h.Checkout)
		r.Get("/wilayas", h.ListWilayas)

		r.Get("/wishlist", h.GetWishlist)
		r.Post("/wishlist/{productId}", h.ToggleWishlist)
		r.Get("/orders", h.OrderHistory)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.SignIn)
			r.Post("/signup", h.SignUp)
			r.Post("/signout", h.SignOut)
			r.Post("/refresh", h.RefreshSession)
		})
		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateProfile)
		r.Put("/view", h.SetView)

		r.Post("/assistant", h.Ask)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)
			h.registerAdminRoutes(r)
		})
	})
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"` // View the client should show next
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithErr maps a domain error onto its HTTP status. Unknown errors are logged and
// reported as a generic 500 with fallback as the message.
func (h *HTTPHandler) respondWithErr(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validationErrs validator.ValidationErrors
		minimum        *discount.MinimumPurchaseError
	)
	switch {
	case errors.Is(err, storefront.ErrLoginRequired):
		h.respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Please sign in to continue", Redirect: string(domain.ViewLogin)})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		h.respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storefront.ErrForbidden):
		h.respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storefront.ErrUnknownProduct),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrDiscountNotFound),
		errors.Is(err, store.ErrUserNotFound):
		h.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrCategoryNameExists),
		errors.Is(err, store.ErrProductSKUExists),
		errors.Is(err, store.ErrDiscountCodeExists),
		errors.Is(err, store.ErrOrderNumberExists),
		errors.Is(err, store.ErrOrderStatusChanged),
		errors.Is(err, store.ErrUserEmailExists),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, storefront.ErrDiscountAlreadyApplied):
		h.respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &minimum):
		h.respondWithError(w, http.StatusUnprocessableEntity, minimum.Error())
	case errors.Is(err, discount.ErrInvalidCode),
		errors.Is(err, discount.ErrNotActiveYet),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrUsageLimitReached),
		errors.Is(err, store.ErrDiscountExhausted):
		h.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrs):
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
	case errors.Is(err, storefront.ErrEmptyCart),
		errors.Is(err, storefront.ErrUnknownView),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, admin.ErrNoImages),
		errors.Is(err, admin.ErrDiscountValueRequired),
		errors.Is(err, admin.ErrInvalidRole),
		errors.Is(err, inventory.ErrInvalidStatus):
		h.respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback, zap.String("path", r.URL.Path), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation on it.
// It writes the 400 response itself and reports whether the handler may continue.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *HTTPHandler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return id, true
}

// --- Client binding ---

type clientKey struct{}

// withClient binds the cookie's storefront client to the request and waits for its boot-time
// session resolution before handing over.
func (h *HTTPHandler) withClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := h.clients.Client(w, r)
		if err != nil {
			h.logger.Warn("client cookie not saved", zap.Error(err))
		}
		select {
		case <-c.Ready():
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, c)))
	})
}

func clientFrom(r *http.Request) *storefront.Client {
	return r.Context().Value(clientKey{}).(*storefront.Client)
}

// persist rewrites the client cookie after an auth change. A failure only costs the session
// on the next eviction, so it is logged.
func (h *HTTPHandler) persist(w http.ResponseWriter, r *http.Request, c *storefront.Client) {
	if err := h.clients.Persist(w, r, c); err != nil {
		h.logger.Warn("client cookie not saved", zap.String("client_id", c.ID()), zap.Error(err))
	}
}

func (h *HTTPHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := clientFrom(r).User()
		if user == nil {
			h.respondWithErr(w, r, storefront.ErrLoginRequired, "")
			return
		}
		if !user.IsAdmin() {
			h.respondWithErr(w, r, storefront.ErrForbidden, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one debug line per request through logger.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
