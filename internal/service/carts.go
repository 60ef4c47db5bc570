package service

import (
	"context"
	"strings"

	"serenia/backend/internal/cart"
	"serenia/backend/internal/domain"
	"serenia/backend/internal/money"
	"serenia/backend/internal/pricing"
	"serenia/backend/internal/store"
	"serenia/backend/internal/xid"
)

// OpenCart starts an empty held cart and returns its handle. The cart checks
// stock against the live catalog on every edit but reserves nothing; commit
// re-validates.
func (s *Service) OpenCart(ctx context.Context) (domain.CartView, error) {
	id := xid.NewCart()
	c := cart.New(s.repo)

	s.cartsMu.Lock()
	s.openCarts[id] = c
	s.cartsMu.Unlock()

	return s.cartView(ctx, id, c, "", "", "")
}

// GetCart re-prices the cart with the given percent inputs, so the client
// sees live totals without committing anything.
func (s *Service) GetCart(ctx context.Context, cartID, discountPercent, taxPercent, customerID string) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.cartView(ctx, cartID, c, discountPercent, taxPercent, customerID)
}

func (s *Service) AddCartLine(ctx context.Context, cartID string, req domain.CartLineRequest) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := c.AddLine(ctx, code, req.Qty); err != nil {
		return domain.CartView{}, err
	}
	return s.cartView(ctx, cartID, c, "", "", "")
}

func (s *Service) AddCartCustomLine(ctx context.Context, cartID string, req domain.CartCustomLineRequest) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	price, err := money.FromString(req.UnitPrice)
	if err != nil {
		return domain.CartView{}, store.ErrInvalidInput
	}
	if _, err := c.AddCustomLine(req.Name, price, req.Qty); err != nil {
		return domain.CartView{}, err
	}
	return s.cartView(ctx, cartID, c, "", "", "")
}

func (s *Service) AdjustCartLine(ctx context.Context, cartID, code string, delta int) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	if !xid.IsCustom(code) {
		code = strings.ToUpper(strings.TrimSpace(code))
	}
	if err := c.AdjustQty(ctx, code, delta); err != nil {
		return domain.CartView{}, err
	}
	return s.cartView(ctx, cartID, c, "", "", "")
}

func (s *Service) RemoveCartLine(ctx context.Context, cartID, code string) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	if !xid.IsCustom(code) {
		code = strings.ToUpper(strings.TrimSpace(code))
	}
	if err := c.Remove(code); err != nil {
		return domain.CartView{}, err
	}
	return s.cartView(ctx, cartID, c, "", "", "")
}

func (s *Service) ClearCart(ctx context.Context, cartID string) (domain.CartView, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	c.Clear()
	return s.cartView(ctx, cartID, c, "", "", "")
}

// DropCart abandons a held cart without committing it.
func (s *Service) DropCart(cartID string) error {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	if _, ok := s.openCarts[cartID]; !ok {
		return store.ErrNotFound
	}
	delete(s.openCarts, cartID)
	return nil
}

// CheckoutCart commits the held cart through the regular checkout path and
// drops it on success. A failed commit leaves the cart open for correction.
func (s *Service) CheckoutCart(ctx context.Context, cartID string, req domain.CartCheckoutRequest) (domain.CheckoutResponse, error) {
	c, err := s.cartByID(cartID)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	resp, err := s.Checkout(ctx, domain.CheckoutRequest{
		CustomerID:      req.CustomerID,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
		Lines:           c.Lines(),
	})
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.cartsMu.Lock()
	delete(s.openCarts, cartID)
	s.cartsMu.Unlock()

	return resp, nil
}

func (s *Service) cartByID(id string) (*cart.Cart, error) {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	c, ok := s.openCarts[strings.TrimSpace(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *Service) cartView(ctx context.Context, id string, c *cart.Cart, discountPercent, taxPercent, customerID string) (domain.CartView, error) {
	lines := c.Lines()
	view := domain.CartView{ID: id, Lines: lines}
	if len(lines) == 0 {
		return view, nil
	}

	discount, tax := s.resolvePercents(discountPercent, taxPercent)
	eligible, err := s.loyaltyEligible(ctx, customerID)
	if err != nil {
		return domain.CartView{}, err
	}
	totals, err := pricing.Compute(lines, discount, tax, eligible)
	if err != nil {
		return domain.CartView{}, err
	}
	view.Totals = totals
	return view, nil
}
