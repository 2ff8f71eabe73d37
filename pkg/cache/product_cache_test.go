package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestDecodeProduct_RejectsMalformed(t *testing.T) {
	base := func() map[string]string {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		return map[string]string{
			"id": uuid.NewString(), "company_id": uuid.NewString(), "created_by": uuid.NewString(),
			"price": "9.50", "qty_uploaded": "10", "qty_current": "7", "qty_sold": "3", "version": "4",
			"created_at": now, "updated_at": now, "status": "available",
		}
	}

	if _, err := decodeProduct(base()); err != nil {
		t.Fatalf("valid hash rejected: %v", err)
	}

	for _, field := range []string{"id", "company_id", "price", "qty_current", "version", "updated_at"} {
		t.Run(field, func(t *testing.T) {
			vals := base()
			vals[field] = "garbage"
			if _, err := decodeProduct(vals); err == nil {
				t.Fatalf("expected error for malformed %s", field)
			}
		})
	}
}

func TestProductCacheIntegration(t *testing.T) {
	rc := integrationClient(t)
	c := NewProductCache(rc)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &CachedProduct{
		ID:          uuid.New(),
		CompanyID:   uuid.New(),
		Name:        "Cola",
		Category:    "drinks",
		Price:       decimal.RequireFromString("1.25"),
		QtyUploaded: 10,
		QtyCurrent:  10,
		Status:      "available",
		Version:     2,
		CreatedBy:   uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.Cleanup(func() { _ = c.Delete(ctx, p.CompanyID, p.ID) })

	t.Run("Miss", func(t *testing.T) {
		if _, err := c.Get(ctx, p.CompanyID, p.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		ok, err := c.Set(ctx, p)
		if err != nil || !ok {
			t.Fatalf("Set: ok=%v err=%v", ok, err)
		}
		got, err := c.Get(ctx, p.CompanyID, p.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.QtyCurrent != 10 || !got.Price.Equal(p.Price) || got.Version != 2 {
			t.Fatalf("unexpected cached product %+v", got)
		}
	})

	t.Run("OlderVersionIgnored", func(t *testing.T) {
		stale := *p
		stale.Version = 1
		stale.QtyCurrent = 99
		ok, err := c.Set(ctx, &stale)
		if err != nil {
			t.Fatalf("Set: %v", err)
		}
		if ok {
			t.Fatal("stale version must not overwrite")
		}
		got, _ := c.Get(ctx, p.CompanyID, p.ID)
		if got.QtyCurrent != 10 {
			t.Fatalf("stale write leaked: %d", got.QtyCurrent)
		}
	})

	t.Run("OtherTenantKeyIsolated", func(t *testing.T) {
		if _, err := c.Get(ctx, uuid.New(), p.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected miss under another company, got %v", err)
		}
	})

	t.Run("Tombstone", func(t *testing.T) {
		if err := c.Tombstone(ctx, p.CompanyID, p.ID, p.Version+1); err != nil {
			t.Fatalf("Tombstone: %v", err)
		}
		if _, err := c.Get(ctx, p.CompanyID, p.ID); !errors.Is(err, ErrTombstoned) {
			t.Fatalf("expected ErrTombstoned, got %v", err)
		}
		if ok, _ := c.Set(ctx, p); ok {
			t.Fatal("stale warm revived a deleted product")
		}
	})
}

func TestNotifierIntegration(t *testing.T) {
	rc := integrationClient(t)
	n := NewNotifier(rc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := "products:" + uuid.NewString()
	ch, err := n.Listen(ctx, channel)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := n.Notify(ctx, channel); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// a second buffered wake-up is allowed; the channel must still close
			<-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener not closed after cancel")
	}
}
