package coupons

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// Provider resolves and manages coupons from one backing source.
type Provider interface {
	// Identifier names the provider for logs and metrics.
	Identifier() string
	// Supports reports whether this provider recognizes the code shape.
	Supports(code string) bool
	// FindByCode resolves a code to its definition. A nil definition with a
	// nil error means the provider does not know the code.
	FindByCode(ctx context.Context, code string, userID uuid.UUID) (*Definition, error)
	// Lock reserves the coupon for the user for the duration of a checkout.
	Lock(ctx context.Context, code string, userID uuid.UUID) (bool, error)
	// Unlock releases a reservation. Releasing an absent lock is not an error.
	Unlock(ctx context.Context, code string, userID uuid.UUID) (bool, error)
	// Redeem consumes the coupon after the surrounding order is committed.
	Redeem(ctx context.Context, code string, userID uuid.UUID, metadata map[string]any) (bool, error)
}

// Resolver is a fallback hook consulted when no registered provider resolves
// a code, e.g. a remote partner-coupon lookup.
type Resolver func(ctx context.Context, code string, userID uuid.UUID) (*Definition, error)

// UnresolvedHandler is notified when a code cannot be resolved by any
// provider or fallback, so unknown codes can be reported downstream.
type UnresolvedHandler func(ctx context.Context, code string, userID uuid.UUID)

// Chain fans coupon operations out over an ordered provider list. The first
// provider that supports a code owns it: later providers are never consulted
// for that operation, and provider failures degrade to "not found" / false
// rather than aborting the surrounding quote or checkout.
type Chain struct {
	providers  []Provider
	fallbacks  []Resolver
	unresolved UnresolvedHandler
	logg       *logger.Logger
}

// NewChain builds a provider chain in the given precedence order.
func NewChain(logg *logger.Logger, providers ...Provider) (*Chain, error) {
	if logg == nil {
		return nil, fmt.Errorf("coupons: logger is required")
	}
	return &Chain{providers: providers, logg: logg}, nil
}

// Register appends a provider at the lowest precedence.
func (c *Chain) Register(provider Provider) {
	if provider == nil {
		return
	}
	c.providers = append(c.providers, provider)
}

// AddFallback appends a resolver consulted after all providers miss.
func (c *Chain) AddFallback(resolver Resolver) {
	if resolver == nil {
		return
	}
	c.fallbacks = append(c.fallbacks, resolver)
}

// OnUnresolved sets the handler invoked for codes nothing could resolve.
func (c *Chain) OnUnresolved(handler UnresolvedHandler) {
	c.unresolved = handler
}

// FindByCode resolves a code through the providers, then the fallback
// resolvers. Returns a typed not-found error when nothing knows the code.
func (c *Chain) FindByCode(ctx context.Context, code string, userID uuid.UUID) (*Definition, error) {
	for _, provider := range c.providers {
		if !provider.Supports(code) {
			continue
		}
		def, err := c.safeFind(ctx, provider, code, userID)
		if err != nil {
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
				"provider":    provider.Identifier(),
				"coupon_code": code,
			}), "coupon provider lookup failed: "+err.Error())
			continue
		}
		if def != nil {
			return def, nil
		}
	}

	for _, resolver := range c.fallbacks {
		def, err := resolver(ctx, code, userID)
		if err != nil {
			c.logg.Warn(c.logg.WithCouponCode(ctx, code), "coupon fallback resolver failed: "+err.Error())
			continue
		}
		if def != nil {
			return def, nil
		}
	}

	if c.unresolved != nil {
		c.unresolved(ctx, code, userID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon code not resolved").
		WithDetails(map[string]string{"coupon_code": code})
}

// Lock asks the first supporting provider to reserve the coupon. Returns
// false when no provider supports the code or the reservation fails for any
// reason; it never returns an error to the caller.
func (c *Chain) Lock(ctx context.Context, code string, userID uuid.UUID) bool {
	provider, ok := c.firstSupporting(code)
	if !ok {
		return false
	}
	locked, err := c.safeLock(ctx, provider, code, userID)
	if err != nil {
		c.logg.Warn(c.logg.WithCouponCode(ctx, code), "coupon lock failed: "+err.Error())
		return false
	}
	return locked
}

// Unlock releases a reservation through the first supporting provider.
// Unlocking an absent lock reports success.
func (c *Chain) Unlock(ctx context.Context, code string, userID uuid.UUID) bool {
	provider, ok := c.firstSupporting(code)
	if !ok {
		return false
	}
	released, err := c.safeUnlock(ctx, provider, code, userID)
	if err != nil {
		c.logg.Warn(c.logg.WithCouponCode(ctx, code), "coupon unlock failed: "+err.Error())
		return false
	}
	return released
}

// Redeem consumes the coupon through the first supporting provider.
func (c *Chain) Redeem(ctx context.Context, code string, userID uuid.UUID, metadata map[string]any) bool {
	provider, ok := c.firstSupporting(code)
	if !ok {
		return false
	}
	redeemed, err := c.safeRedeem(ctx, provider, code, userID, metadata)
	if err != nil {
		c.logg.Warn(c.logg.WithCouponCode(ctx, code), "coupon redeem failed: "+err.Error())
		return false
	}
	return redeemed
}

func (c *Chain) firstSupporting(code string) (Provider, bool) {
	for _, provider := range c.providers {
		if provider.Supports(code) {
			return provider, true
		}
	}
	return nil, false
}

func (c *Chain) safeFind(ctx context.Context, p Provider, code string, userID uuid.UUID) (def *Definition, err error) {
	defer func() {
		if r := recover(); r != nil {
			def, err = nil, fmt.Errorf("provider %s panicked: %v", p.Identifier(), r)
		}
	}()
	return p.FindByCode(ctx, code, userID)
}

func (c *Chain) safeLock(ctx context.Context, p Provider, code string, userID uuid.UUID) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("provider %s panicked: %v", p.Identifier(), r)
		}
	}()
	return p.Lock(ctx, code, userID)
}

func (c *Chain) safeUnlock(ctx context.Context, p Provider, code string, userID uuid.UUID) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("provider %s panicked: %v", p.Identifier(), r)
		}
	}()
	return p.Unlock(ctx, code, userID)
}

func (c *Chain) safeRedeem(ctx context.Context, p Provider, code string, userID uuid.UUID, metadata map[string]any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("provider %s panicked: %v", p.Identifier(), r)
		}
	}()
	return p.Redeem(ctx, code, userID, metadata)
}
