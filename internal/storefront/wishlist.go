package storefront

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
)

// ReviewInput is a review submitted from the product page.
type ReviewInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Rating    int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

func (c *Client) Wishlist() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.wishlist))
	copy(out, c.wishlist)
	return out
}

func (c *Client) inWishlist(productID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.wishlist {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// LoadWishlist fetches the wishlist with images and category names.
func (c *Client) LoadWishlist(ctx context.Context) ([]domain.Product, error) {
	userID, ok := c.dbID()
	if !ok {
		return nil, ErrLoginRequired
	}
	products, err := c.svc.Store.ListWishlistProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	products = catalog.EnrichProducts(products, c.svc.Catalog.Snapshot().Categories, c.svc.Now())

	c.mu.Lock()
	c.wishlist = products
	c.mu.Unlock()
	c.logger.Debug("wishlist loaded", zap.Int("count", len(products)))
	return c.Wishlist(), nil
}

// ToggleWishlist removes productID when present and adds it otherwise. Local state only
// changes after the remote write succeeds. It reports whether the product is now wishlisted.
func (c *Client) ToggleWishlist(ctx context.Context, productID int64) (bool, error) {
	userID, ok := c.dbID()
	if !ok {
		return false, ErrLoginRequired
	}

	if c.inWishlist(productID) {
		if err := c.svc.Store.RemoveFromWishlist(ctx, userID, productID); err != nil {
			return true, err
		}
		c.mu.Lock()
		for i, p := range c.wishlist {
			if p.ID == productID {
				c.wishlist = append(c.wishlist[:i:i], c.wishlist[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		return false, nil
	}

	p, found := c.svc.Catalog.Snapshot().Product(productID)
	if !found {
		return false, fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	if err := c.svc.Store.AddToWishlist(ctx, userID, productID); err != nil {
		return false, err
	}
	c.mu.Lock()
	// An overlapping toggle may have appended it while the insert was in flight.
	if !slices.ContainsFunc(c.wishlist, func(w domain.Product) bool { return w.ID == productID }) {
		c.wishlist = append(c.wishlist, p)
	}
	c.mu.Unlock()
	return true, nil
}

// OrderHistory lists the client's orders from the catalog snapshot, newest first.
func (c *Client) OrderHistory() ([]domain.Order, error) {
	userID, ok := c.dbID()
	if !ok {
		return nil, ErrLoginRequired
	}
	var out []domain.Order
	for _, o := range c.svc.Catalog.Snapshot().Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *Client) Reviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	return c.svc.Store.ListReviews(ctx, productID)
}

// SubmitReview stores a review, then recomputes and persists the product's average rating
// (one decimal) and review count. It returns the refreshed review list.
func (c *Client) SubmitReview(ctx context.Context, in ReviewInput) ([]domain.Review, error) {
	userID, ok := c.dbID()
	if !ok {
		return nil, ErrLoginRequired
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	if err := c.svc.Store.CreateReview(ctx, &domain.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}); err != nil {
		return nil, err
	}

	reviews, err := c.svc.Store.ListReviews(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("storefront: reload reviews: %w", err)
	}
	rating := AverageRating(reviews)
	if err := c.svc.Store.UpdateRating(ctx, in.ProductID, rating, int32(len(reviews))); err != nil {
		c.logger.Error("product rating update failed", zap.Int64("product_id", in.ProductID), zap.Error(err))
		return reviews, nil
	}
	if _, err := c.svc.Catalog.Refresh(ctx, "review"); err != nil && !errors.Is(err, catalog.ErrRefreshInProgress) {
		c.logger.Warn("catalog refresh after review incomplete", zap.Error(err))
	}
	return reviews, nil
}

// AverageRating is the mean rating rounded to one decimal, or 0 without reviews.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(1).
		InexactFloat64()
}
