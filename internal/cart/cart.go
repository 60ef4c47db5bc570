// Package cart holds the mutable pre-transaction line items for one open
// sale. Stock is checked against the live catalog at add/adjust time but is
// never reserved; the commit path re-validates against live stock, so two
// carts may both accept the same units and only the first commit wins.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/store"
	"serenia/backend/internal/xid"
)

// Catalog is the read view a cart needs for stock checks.
type Catalog interface {
	GetProduct(ctx context.Context, code string) (*domain.Product, error)
}

type Cart struct {
	mu      sync.Mutex
	catalog Catalog
	lines   []domain.CartLine
}

func New(catalog Catalog) *Cart {
	return &Cart{catalog: catalog}
}

// IsCustomCode reports whether code identifies a custom line, which is not
// backed by any catalog product and is exempt from stock tracking.
func IsCustomCode(code string) bool {
	return xid.IsCustom(code)
}

// AddLine adds qty units of a catalog product, merging with an existing line
// for the same code. The merged quantity must not exceed current stock.
func (c *Cart) AddLine(ctx context.Context, code string, qty int) error {
	code = strings.TrimSpace(code)
	if code == "" || qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}

	product, err := c.catalog.GetProduct(ctx, code)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	running := qty
	for _, line := range c.lines {
		if line.Code == code {
			running += line.Qty
		}
	}
	if running > product.StockQty {
		return fmt.Errorf("%w: only %d units of %s available", store.ErrInsufficientStock, product.StockQty, product.Name)
	}

	for i, line := range c.lines {
		if line.Code == code {
			c.lines[i].Qty = running
			c.lines[i].LineTotal = line.UnitPrice.MulInt(int64(running))
			return nil
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		Code:      code,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Qty:       qty,
		LineTotal: product.UnitPrice.MulInt(int64(qty)),
	})
	return nil
}

// AddCustomLine adds an ad-hoc item under a synthetic code.
func (c *Cart) AddCustomLine(name string, price money.Money, qty int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: custom item name required", store.ErrInvalidInput)
	}
	if price.IsNegative() || price.IsZero() {
		return "", fmt.Errorf("%w: custom item price must be positive", store.ErrInvalidInput)
	}
	if qty < 1 {
		return "", fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}

	code := xid.NewCustom()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, domain.CartLine{
		Code:      code,
		Name:      name,
		UnitPrice: price,
		Qty:       qty,
		LineTotal: price.MulInt(int64(qty)),
	})
	return code, nil
}

// AdjustQty changes the quantity of an existing line by delta. The result
// must stay at least 1 (use Remove instead) and, for catalog-backed lines,
// within current stock.
func (c *Cart) AdjustQty(ctx context.Context, code string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, line := range c.lines {
		if line.Code != code {
			continue
		}
		next := line.Qty + delta
		if next < 1 {
			return fmt.Errorf("%w: quantity cannot drop below 1", store.ErrInvalidInput)
		}
		if !IsCustomCode(code) {
			product, err := c.catalog.GetProduct(ctx, code)
			if err != nil {
				return err
			}
			if next > product.StockQty {
				return fmt.Errorf("%w: only %d units of %s available", store.ErrInsufficientStock, product.StockQty, product.Name)
			}
		}
		c.lines[i].Qty = next
		c.lines[i].LineTotal = line.UnitPrice.MulInt(int64(next))
		return nil
	}
	return store.ErrNotFound
}

func (c *Cart) Remove(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, line := range c.lines {
		if line.Code == code {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a snapshot of the current cart contents.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]domain.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}
