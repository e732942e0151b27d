package admin

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront-service/internal/domain"
)

const (
	stockAlertBelow   int32 = 10
	recentOrdersLimit       = 5
	analyticsMonths         = 6
	topProductsLimit        = 5
)

// Dashboard is the admin landing summary. Cancelled orders never count toward revenue.
type Dashboard struct {
	TotalRevenue float64        `json:"total_revenue"`
	TotalOrders  int            `json:"total_orders"`
	TotalUsers   int            `json:"total_users"`
	StockAlerts  int            `json:"stock_alerts"`
	RecentOrders []domain.Order `json:"recent_orders"`
}

// Dashboard runs its four queries concurrently and fails if any fails.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d      Dashboard
		orders []domain.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.store.ListOrdersWithItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalUsers, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.StockAlerts, err = s.store.CountLowStock(gctx, stockAlertBelow)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.store.ListRecentOrders(gctx, recentOrdersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Status != domain.OrderStatusCancelled {
			d.TotalRevenue += o.Total
			d.TotalOrders++
		}
	}
	return &d, nil
}

type MonthRevenue struct {
	Label   string  `json:"label"`
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

type ProductSales struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Quantity  int32   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// Analytics is computed from the catalog snapshot.
type Analytics struct {
	TotalOrders  int            `json:"total_orders"`
	Delivered    int            `json:"delivered"`
	Cancelled    int            `json:"cancelled"`
	Pending      int            `json:"pending"`
	TotalRevenue float64        `json:"total_revenue"`
	DeliveryRate float64        `json:"delivery_rate"` // Percent of settled orders that were delivered
	Monthly      []MonthRevenue `json:"monthly"`
	TopProducts  []ProductSales `json:"top_products"`
}

func (s *Service) Analytics() Analytics {
	snap := s.catalog.Snapshot()
	return ComputeAnalytics(snap.Orders, snap.Products, s.now())
}

// ComputeAnalytics summarizes orders. Monthly buckets cover the six calendar months ending
// with now's month, in now's location.
func ComputeAnalytics(orders []domain.Order, products []domain.Product, now time.Time) Analytics {
	a := Analytics{TotalOrders: len(orders)}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(analyticsMonths - 1), 0)
	a.Monthly = make([]MonthRevenue, analyticsMonths)
	for i := range a.Monthly {
		m := first.AddDate(0, i, 0)
		a.Monthly[i] = MonthRevenue{Label: strings.ToUpper(m.Format("Jan")), Year: m.Year(), Month: int(m.Month())}
	}

	sales := make(map[int64]*ProductSales)
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusDelivered:
			a.Delivered++
		case domain.OrderStatusCancelled:
			a.Cancelled++
			continue
		case domain.OrderStatusPending, domain.OrderStatusProcessing:
			a.Pending++
		}

		a.TotalRevenue += o.Total
		created := o.CreatedAt.In(now.Location())
		for i := range a.Monthly {
			if a.Monthly[i].Year == created.Year() && a.Monthly[i].Month == int(created.Month()) {
				a.Monthly[i].Revenue += o.Total
				break
			}
		}
		for _, item := range o.Items {
			ps, ok := sales[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID}
				sales[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Revenue += item.Subtotal
		}
	}

	if settled := a.Delivered + a.Cancelled; len(orders) > 0 && settled > 0 {
		a.DeliveryRate = float64(a.Delivered) / float64(settled) * 100
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	a.TopProducts = make([]ProductSales, 0, len(sales))
	for id, ps := range sales {
		ps.Name = "Unknown Product"
		if p, ok := byID[id]; ok {
			ps.Name = p.Name
			ps.Image = p.Image
		}
		a.TopProducts = append(a.TopProducts, *ps)
	}
	sort.Slice(a.TopProducts, func(i, j int) bool {
		if a.TopProducts[i].Revenue != a.TopProducts[j].Revenue {
			return a.TopProducts[i].Revenue > a.TopProducts[j].Revenue
		}
		return a.TopProducts[i].ProductID < a.TopProducts[j].ProductID
	})
	if len(a.TopProducts) > topProductsLimit {
		a.TopProducts = a.TopProducts[:topProductsLimit]
	}
	return a
}
