package pricing

import (
	"time"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/pkg/db/models"
)

// Metadata keys with pipeline-level meaning.
const (
	MetadataOrderType = "order_type"
	OrderTypeRedeem   = "redeem"
)

// CheckoutItem is one cart line entering the pipeline. Unselected lines ride
// along for display but are never priced. Sku is the catalog row resolved on
// first load; once set it is never replaced, so every stage of one pricing
// run reads the same catalog state.
type CheckoutItem struct {
	SkuCode  string
	Qty      int
	Selected bool
	Sku      *models.Sku
}

// Context is the immutable input to a pricing run. The With* builders return
// a modified copy, so one context can fan out to concurrent calculations
// without synchronization.
type Context struct {
	userID   uuid.UUID
	items    []CheckoutItem
	coupons  []string
	metadata map[string]string
	now      time.Time
}

// NewContext builds a pricing context for the given user and cart lines.
func NewContext(userID uuid.UUID, items []CheckoutItem) Context {
	return Context{
		userID: userID,
		items:  copyItems(items),
	}
}

// UserID returns the purchasing user.
func (c Context) UserID() uuid.UUID {
	return c.userID
}

// Items returns a copy of the cart lines.
func (c Context) Items() []CheckoutItem {
	return copyItems(c.items)
}

// SelectedItems returns only the lines marked for purchase.
func (c Context) SelectedItems() []CheckoutItem {
	var selected []CheckoutItem
	for _, item := range c.items {
		if item.Selected {
			selected = append(selected, item)
		}
	}
	return selected
}

// Coupons returns the user-presented coupon codes in presentation order.
func (c Context) Coupons() []string {
	if len(c.coupons) == 0 {
		return nil
	}
	out := make([]string, len(c.coupons))
	copy(out, c.coupons)
	return out
}

// Metadata returns the value stored under key.
func (c Context) Metadata(key string) (string, bool) {
	value, ok := c.metadata[key]
	return value, ok
}

// Now returns the pricing reference time, defaulting to the wall clock.
func (c Context) Now() time.Time {
	if c.now.IsZero() {
		return time.Now()
	}
	return c.now
}

// IsRedeemOnly reports whether this run prices a pure point-redemption order.
func (c Context) IsRedeemOnly() bool {
	value, ok := c.metadata[MetadataOrderType]
	return ok && value == OrderTypeRedeem
}

// WithItems returns a copy carrying the given cart lines.
func (c Context) WithItems(items []CheckoutItem) Context {
	next := c
	next.items = copyItems(items)
	return next
}

// WithCoupons returns a copy carrying the given coupon codes.
func (c Context) WithCoupons(codes ...string) Context {
	next := c
	next.coupons = make([]string, len(codes))
	copy(next.coupons, codes)
	return next
}

// WithMetadata returns a copy with key set to value.
func (c Context) WithMetadata(key, value string) Context {
	next := c
	next.metadata = make(map[string]string, len(c.metadata)+1)
	for k, v := range c.metadata {
		next.metadata[k] = v
	}
	next.metadata[key] = value
	return next
}

// WithNow returns a copy pinned to the given reference time.
func (c Context) WithNow(now time.Time) Context {
	next := c
	next.now = now
	return next
}

// attachSku caches the resolved catalog row on every line carrying the code.
// All value copies of one context share the same backing lines, so a SKU
// loaded by an early calculator is reused by the later ones.
func (c Context) attachSku(code string, sku *models.Sku) {
	for i := range c.items {
		if c.items[i].SkuCode == code && c.items[i].Sku == nil {
			c.items[i].Sku = sku
		}
	}
}

// resolvedSku returns the cached catalog row for code, when a line carries it.
func (c Context) resolvedSku(code string) *models.Sku {
	for _, item := range c.items {
		if item.SkuCode == code && item.Sku != nil {
			return item.Sku
		}
	}
	return nil
}

func copyItems(items []CheckoutItem) []CheckoutItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]CheckoutItem, len(items))
	copy(out, items)
	return out
}
