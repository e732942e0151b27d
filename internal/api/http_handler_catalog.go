package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/storefront"
)

// --- Catalog Handlers ---

// CatalogResponse is the shopper's view of the snapshot. Orders and inactive products
// stay server side.
type CatalogResponse struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
	FetchedAt  time.Time         `json:"fetched_at"`
	Stale      []catalog.Slice   `json:"stale,omitempty"`
}

func (h *HTTPHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.Snapshot()
	h.respondWithJSON(w, http.StatusOK, CatalogResponse{
		Categories: nonNil(snap.Categories),
		Products:   snap.ActiveProducts(),
		FetchedAt:  snap.FetchedAt,
		Stale:      snap.Stale,
	})
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.catalog.Snapshot().Categories)
}

// ProductListResponse is one page of the storefront listing.
type ProductListResponse struct {
	catalog.Page
	Query catalog.Query `json:"query"`
}

// queryFromRequest reads the listing filters. Malformed numbers are ignored.
func queryFromRequest(r *http.Request) catalog.Query {
	qParams := r.URL.Query()
	q := catalog.Query{
		Search:      qParams.Get("search"),
		InStockOnly: qParams.Get("in_stock") == "true",
		NewOnly:     qParams.Get("new") == "true",
		OffersOnly:  qParams.Get("offers") == "true",
		Sort:        catalog.SortOrder(qParams.Get("sort")),
	}
	if id, err := strconv.ParseInt(qParams.Get("category_id"), 10, 64); err == nil && id > 0 {
		q.CategoryID = &id
	}
	if v, err := strconv.ParseFloat(qParams.Get("min_price"), 64); err == nil {
		q.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(qParams.Get("max_price"), 64); err == nil {
		q.MaxPrice = &v
	}
	return q
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1 // Default page
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = catalog.DefaultPageSize
	}
	if limit > 100 { // Max limit
		limit = 100
	}

	filtered := catalog.Filter(h.catalog.Snapshot().Products, q)
	h.respondWithJSON(w, http.StatusOK, ProductListResponse{
		Page:  catalog.Paginate(filtered, page, limit),
		Query: q,
	})
}

// ProductDetailResponse is a product with the related products shown beside it.
type ProductDetailResponse struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}

	snap := h.catalog.Snapshot()
	product, found := snap.Product(productID)
	if !found || !product.IsActive {
		h.respondWithErr(w, r, storefront.ErrUnknownProduct, "")
		return
	}
	h.respondWithJSON(w, http.StatusOK, ProductDetailResponse{
		Product: product,
		Related: catalog.Related(product, snap.ActiveProducts(), catalog.RelatedLimit),
	})
}

func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	reviews, err := clientFrom(r).Reviews(r.Context(), productID)
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to retrieve reviews")
		return
	}
	h.respondWithJSON(w, http.StatusOK, reviews)
}

// ReviewCreateInput is the body of a review submission; the product comes from the path.
type ReviewCreateInput struct {
	Rating  int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *HTTPHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.idParam(w, r, "productId")
	if !ok {
		return
	}
	var input ReviewCreateInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	reviews, err := clientFrom(r).SubmitReview(r.Context(), storefront.ReviewInput{
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	})
	if err != nil {
		h.respondWithErr(w, r, err, "Failed to submit review")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, reviews)
}
