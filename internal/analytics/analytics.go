// Package analytics computes read-only aggregates for the admin dashboard.
package analytics

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitsSold int       `json:"units_sold"`
	Revenue   float64   `json:"revenue"`
}

type CategoryPerformance struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

type Snapshot struct {
	TotalUsers          int                   `json:"total_users"`
	TotalOrders         int                   `json:"total_orders"`
	TotalRevenue        float64               `json:"total_revenue"`
	TopProducts         []TopProduct          `json:"top_products"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
}

type Service interface {
	GetSnapshot(ctx context.Context) (*Snapshot, error)
}

type service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) Service {
	return &service{db: db}
}

// revenueStatuses are the order states that count towards revenue: the
// payment callback confirmed them.
const revenueStatuses = `('paid', 'shipped', 'delivered')`

func (s *service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&snap.TotalUsers); err != nil {
			return fmt.Errorf("analytics: failed to count users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := s.db.QueryRow(ctx,
			`SELECT COUNT(*), COALESCE(SUM(total) FILTER (WHERE status IN `+revenueStatuses+`), 0) FROM orders`,
		).Scan(&snap.TotalOrders, &snap.TotalRevenue)
		if err != nil {
			return fmt.Errorf("analytics: failed to aggregate orders: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		query := `
			SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.price)
			FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			JOIN orders o ON o.id = oi.order_id
			WHERE o.status IN ` + revenueStatuses + `
			GROUP BY p.id, p.name
			ORDER BY SUM(oi.quantity) DESC
			LIMIT 10
		`
		rows, err := s.db.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("analytics: failed to query top products: %w", err)
		}
		defer rows.Close()

		top := make([]TopProduct, 0)
		for rows.Next() {
			var tp TopProduct
			if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.UnitsSold, &tp.Revenue); err != nil {
				return fmt.Errorf("analytics: failed to scan top product: %w", err)
			}
			top = append(top, tp)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("analytics: error iterating top products: %w", err)
		}
		snap.TopProducts = top
		return nil
	})

	g.Go(func() error {
		query := `
			SELECT c.id, c.name, COUNT(DISTINCT o.id), SUM(oi.quantity * oi.price)
			FROM categories c
			JOIN products p ON p.category_id = c.id
			JOIN order_items oi ON oi.product_id = p.id
			JOIN orders o ON o.id = oi.order_id
			WHERE o.status IN ` + revenueStatuses + `
			GROUP BY c.id, c.name
			ORDER BY SUM(oi.quantity * oi.price) DESC
		`
		rows, err := s.db.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("analytics: failed to query category performance: %w", err)
		}
		defer rows.Close()

		perf := make([]CategoryPerformance, 0)
		for rows.Next() {
			var cp CategoryPerformance
			if err := rows.Scan(&cp.CategoryID, &cp.Name, &cp.OrderCount, &cp.Revenue); err != nil {
				return fmt.Errorf("analytics: failed to scan category performance: %w", err)
			}
			perf = append(perf, cp)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("analytics: error iterating category performance: %w", err)
		}
		snap.CategoryPerformance = perf
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &snap, nil
}
