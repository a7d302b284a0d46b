// Package cart keeps each user's cart as a Redis hash with a sliding 7-day
// expiry. Stock checks here are advisory only, for early feedback; checkout
// re-validates everything inside its own transaction.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-cart-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-cart-checkout.git/internal/stock"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

type Catalog interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Line struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url,omitempty"`
	PriceCents    int    `json:"price_cents"`
	Quantity      int    `json:"quantity"`
	SubtotalCents int    `json:"subtotal_cents"`
}

type View struct {
	Items      []Line `json:"items"`
	TotalCents int    `json:"total_cents"`
	Count      int    `json:"count"`
}

type Cart struct {
	Redis   *redis.Client
	Catalog Catalog
}

func key(userID string) string { return fmt.Sprintf(redisx.KeyCart, userID) }

// Add increments the held quantity for a product. The increment itself is a
// single HINCRBY, so rapid repeated adds cannot lose updates.
func (c *Cart) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	p, err := c.Catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	held, err := c.held(ctx, userID, productID)
	if err != nil {
		return err
	}
	if held+qty > p.Stock {
		return &stock.InsufficientError{ProductID: productID, Name: p.Name, Requested: held + qty, Available: p.Stock}
	}

	k := key(userID)
	if err := c.Redis.HIncrBy(ctx, k, productID, int64(qty)).Err(); err != nil {
		return err
	}
	return c.Redis.Expire(ctx, k, redisx.TTLCart).Err()
}

// Update overwrites the held quantity. qty 0 removes the entry and succeeds
// even if it was never there.
func (c *Cart) Update(ctx context.Context, userID, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return c.Remove(ctx, userID, productID)
	}
	p, err := c.Catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &stock.InsufficientError{ProductID: productID, Name: p.Name, Requested: qty, Available: p.Stock}
	}

	k := key(userID)
	if err := c.Redis.HSet(ctx, k, productID, qty).Err(); err != nil {
		return err
	}
	return c.Redis.Expire(ctx, k, redisx.TTLCart).Err()
}

func (c *Cart) Remove(ctx context.Context, userID, productID string) error {
	return c.Redis.HDel(ctx, key(userID), productID).Err()
}

func (c *Cart) Clear(ctx context.Context, userID string) error {
	return c.Redis.Del(ctx, key(userID)).Err()
}

// Items returns the raw product_id -> qty mapping. An absent cart is an empty
// map. This is what checkout consumes; it deliberately skips the catalog join.
func (c *Cart) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := c.Redis.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[string]int, len(raw))
	for pid, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		items[pid] = qty
	}
	return items, nil
}

// Snapshot joins the cart with current catalog data. Products that no longer
// exist drop out of the view silently. Prices are current, not price-at-add.
func (c *Cart) Snapshot(ctx context.Context, userID string) (*View, error) {
	items, err := c.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &View{Items: []Line{}}
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(items))
	for pid := range items {
		ids = append(ids, pid)
	}
	sort.Strings(ids)

	products, err := c.Catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, pid := range ids {
		p, ok := products[pid]
		if !ok {
			continue
		}
		qty := items[pid]
		sub := p.PriceCents * qty
		view.Items = append(view.Items, Line{
			ProductID:     pid,
			Name:          p.Name,
			ImageURL:      p.ImageURL,
			PriceCents:    p.PriceCents,
			Quantity:      qty,
			SubtotalCents: sub,
		})
		view.TotalCents += sub
	}
	view.Count = len(view.Items)
	return view, nil
}

func (c *Cart) held(ctx context.Context, userID, productID string) (int, error) {
	v, err := c.Redis.HGet(ctx, key(userID), productID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	qty, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return qty, nil
}
