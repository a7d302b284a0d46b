package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-cart-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-cart-checkout.git/internal/stock"
)

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) GetByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func getRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func newTestCart(t *testing.T, products map[string]catalog.Product) (*Cart, string) {
	t.Helper()
	client := getRedis(t)
	c := &Cart{Redis: client, Catalog: &fakeCatalog{products: products}}
	userID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_ = c.Clear(context.Background(), userID)
		_ = client.Close()
	})
	return c, userID
}

func TestAdd_Cumulative(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
	})
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := c.Add(ctx, uid, "p1", 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	items, err := c.Items(ctx, uid)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if items["p1"] != 5 {
		t.Errorf("expected cumulative qty 5, got %d", items["p1"])
	}
}

func TestAdd_InvalidQuantity(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
	})
	for _, qty := range []int{0, -1} {
		if err := c.Add(context.Background(), uid, "p1", qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Add qty=%d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestAdd_ProductNotFound(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{})
	if err := c.Add(context.Background(), uid, "ghost", 1); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected catalog.ErrNotFound, got %v", err)
	}
}

func TestAdd_InsufficientIncludesHeld(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 3},
	})
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := c.Add(ctx, uid, "p1", 2)
	var insufficient *stock.InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientError, got %v", err)
	}
	if insufficient.Requested != 4 || insufficient.Available != 3 {
		t.Errorf("expected requested=4 available=3, got %+v", insufficient)
	}

	// held quantity unchanged by the failed add
	items, _ := c.Items(ctx, uid)
	if items["p1"] != 2 {
		t.Errorf("failed add must not change held qty, got %d", items["p1"])
	}
}

func TestUpdate_OverwritesAndRemovesAtZero(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
	})
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.Update(ctx, uid, "p1", 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ := c.Items(ctx, uid)
	if items["p1"] != 7 {
		t.Errorf("update must overwrite, not increment: got %d", items["p1"])
	}

	if err := c.Update(ctx, uid, "p1", 0); err != nil {
		t.Fatalf("update to 0: %v", err)
	}
	items, _ = c.Items(ctx, uid)
	if _, ok := items["p1"]; ok {
		t.Error("qty 0 must remove the entry")
	}

	// removing an absent entry is fine
	if err := c.Update(ctx, uid, "p1", 0); err != nil {
		t.Errorf("update to 0 on absent entry must succeed: %v", err)
	}
	if err := c.Update(ctx, uid, "p1", -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("negative qty: expected ErrInvalidQuantity, got %v", err)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{})
	for i := 0; i < 2; i++ {
		if err := c.Remove(context.Background(), uid, "p1"); err != nil {
			t.Fatalf("remove #%d: %v", i+1, err)
		}
	}
}

func TestSnapshot_EmptyCart(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{})
	view, err := c.Snapshot(context.Background(), uid)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.Items == nil || len(view.Items) != 0 || view.TotalCents != 0 || view.Count != 0 {
		t.Errorf("expected explicit empty view, got %+v", view)
	}
}

func TestSnapshot_JoinsAndFiltersDeleted(t *testing.T) {
	products := map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
		"p2": {ID: "p2", Name: "gadget", PriceCents: 250, Stock: 10},
	}
	c, uid := newTestCart(t, products)
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 2); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if err := c.Add(ctx, uid, "p2", 4); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	// p2 disappears from the catalog after being carted
	delete(products, "p2")

	view, err := c.Snapshot(ctx, uid)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.Count != 1 || len(view.Items) != 1 {
		t.Fatalf("deleted product must drop out of the view, got %+v", view)
	}
	line := view.Items[0]
	if line.ProductID != "p1" || line.Quantity != 2 || line.SubtotalCents != 1000 {
		t.Errorf("unexpected line: %+v", line)
	}
	if view.TotalCents != 1000 {
		t.Errorf("expected total 1000, got %d", view.TotalCents)
	}
}

func TestMutationsRefreshExpiry(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
	})
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	ttl, err := c.Redis.TTL(ctx, key(uid)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("cart key must carry a TTL, got %v", ttl)
	}
}

func TestClear_Idempotent(t *testing.T) {
	c, uid := newTestCart(t, map[string]catalog.Product{
		"p1": {ID: "p1", Name: "widget", PriceCents: 500, Stock: 10},
	})
	ctx := context.Background()

	if err := c.Add(ctx, uid, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Clear(ctx, uid); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
	}
	items, _ := c.Items(ctx, uid)
	if len(items) != 0 {
		t.Errorf("expected empty cart, got %v", items)
	}
}
