package api

import (
	"net/http"

	"storefront-service/internal/domain"
	"storefront-service/internal/pricing"
	"storefront-service/internal/storefront"
)

// --- Cart Handlers ---

// CartResponse is the cart with its price breakdown.
type CartResponse struct {
	Items    []domain.CartItem `json:"items"`
	Count    int32             `json:"count"`
	Discount *domain.Discount  `json:"discount,omitempty"`
	Totals   pricing.Totals    `json:"totals"`
}

func cartResponse(c *storefront.Client) CartResponse {
	return CartResponse{
		Items:    c.Cart().Items(),
		Count:    c.Cart().Count(),
		Discount: c.AppliedDiscount(),
		Totals:   c.Totals(),
	}
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, cartResponse(clientFrom(r)))
}

// CartItemInput adds a product to the cart. Quantity defaults to 1.
type CartItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"gte=0"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if _, err := c.AddToCart(input.ProductID, input.Quantity); err != nil {
		h.respondWithErr(w, r, err, "Failed to add to cart")
		return
	}
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

// CartQuantityInput moves a line quantity by Delta; the result never drops below 1.
type CartQuantityInput struct {
	Delta int32 `json:"delta" validate:"required"`
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	var input CartQuantityInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if !c.Cart().UpdateQuantity(productID, input.Delta) {
		h.respondWithError(w, http.StatusNotFound, "Product is not in the cart")
		return
	}
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	c := clientFrom(r)
	if !c.Cart().Remove(productID) {
		h.respondWithError(w, http.StatusNotFound, "Product is not in the cart")
		return
	}
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := clientFrom(r)
	c.Cart().Clear()
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

// DiscountApplyInput carries a shopper-entered code.
type DiscountApplyInput struct {
	Code string `json:"code" validate:"required,max=50"`
}

func (h *HTTPHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var input DiscountApplyInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	c := clientFrom(r)
	if _, err := c.ApplyDiscount(r.Context(), input.Code); err != nil {
		h.respondWithErr(w, r, err, "Failed to apply discount")
		return
	}
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

func (h *HTTPHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	c := clientFrom(r)
	c.RemoveDiscount()
	h.respondWithJSON(w, http.StatusOK, cartResponse(c))
}

// --- Checkout Handlers ---

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input storefront.ShippingInfo
	if err := decodeJSON(r, &input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	// The form rules live in the storefront package and run inside PlaceOrder.
	order, err := clientFrom(r).PlaceOrder(r.Context(), input)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to place order")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, order)
}

// WilayasResponse lists the delivery regions and the one preselected on the form.
type WilayasResponse struct {
	Wilayas []string `json:"wilayas"`
	Default string   `json:"default"`
}

func (h *HTTPHandler) ListWilayas(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, WilayasResponse{Wilayas: storefront.Wilayas, Default: storefront.DefaultWilaya})
}

// --- Wishlist & Order History Handlers ---

func (h *HTTPHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	c := clientFrom(r)
	if c.User() == nil {
		h.respondWithErr(w, r, storefront.ErrLoginRequired, "")
		return
	}
	h.respondWithJSON(w, http.StatusOK, nonNil(c.Wishlist()))
}

// WishlistToggleResponse reports the membership after a toggle.
type WishlistToggleResponse struct {
	ProductID  int64            `json:"product_id"`
	Wishlisted bool             `json:"wishlisted"`
	Wishlist   []domain.Product `json:"wishlist"`
}

func (h *HTTPHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	c := clientFrom(r)
	wishlisted, err := c.ToggleWishlist(r.Context(), productID)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to update wishlist")
		return
	}
	h.respondWithJSON(w, http.StatusOK, WishlistToggleResponse{
		ProductID:  productID,
		Wishlisted: wishlisted,
		Wishlist:   nonNil(c.Wishlist()),
	})
}

func (h *HTTPHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := clientFrom(r).OrderHistory()
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to retrieve orders")
		return
	}
	h.respondWithJSON(w, http.StatusOK, nonNil(orders))
}

// --- Assistant Handler ---

// AssistantInput is one chat message from the shopper.
type AssistantInput struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// AssistantResponse always carries a displayable reply.
type AssistantResponse struct {
	Reply string `json:"reply"`
}

func (h *HTTPHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var input AssistantInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	reply := h.assistant.Reply(r.Context(), input.Message, h.catalog.Snapshot().ActiveProducts())
	h.respondWithJSON(w, http.StatusOK, AssistantResponse{Reply: reply})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
