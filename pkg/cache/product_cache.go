package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// ProductCacheTTL bounds how long a product read model lives without a write.
	ProductCacheTTL = 10 * time.Minute
	tombstoneTTL    = time.Minute

	productCacheKeyPrefix = "product"
)

// ErrTombstoned is returned by Get for a product deleted after it was cached.
var ErrTombstoned = errors.New("cache: product deleted")

// CachedProduct is the denormalized product read model stored as a Redis hash.
type CachedProduct struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	Name           string
	Category       string
	Price          decimal.Decimal
	QtyUploaded    int64
	QtyCurrent     int64
	QtySold        int64
	Status         string
	Version        int64
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastSoldAt     *time.Time
	LastSoldByUID  *uuid.UUID
	LastSoldByName string
}

// setIfNewer replaces the hash only when the stored version is older, so a
// slow read-through warm can never overwrite a newer write-through.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// ProductCache stores product read models keyed by company and product.
// Key format: "product:{companyID}:{productID}".
type ProductCache struct {
	client *RedisClient
}

// NewProductCache returns a ProductCache backed by r.
func NewProductCache(r *RedisClient) *ProductCache {
	return &ProductCache{client: r}
}

// Get returns the cached product. It returns redis.Nil on a miss and
// ErrTombstoned when the product was deleted.
func (c *ProductCache) Get(ctx context.Context, companyID, productID uuid.UUID) (*CachedProduct, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(companyID, productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	if vals["deleted"] == "1" {
		return nil, ErrTombstoned
	}
	p, err := decodeProduct(vals)
	if err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return p, nil
}

// Set stores p unless a newer version is already cached. It reports whether
// the entry was written.
func (c *ProductCache) Set(ctx context.Context, p *CachedProduct) (bool, error) {
	args := []any{p.Version, int(ProductCacheTTL.Seconds())}
	args = append(args, encodeProduct(p)...)
	n, err := setIfNewer.Run(ctx, c.client.Client(), []string{c.key(p.CompanyID, p.ID)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return n == 1, nil
}

// Tombstone marks a product deleted at version so stale warms cannot revive it.
func (c *ProductCache) Tombstone(ctx context.Context, companyID, productID uuid.UUID, version int64) error {
	args := []any{version, int(tombstoneTTL.Seconds()), "deleted", "1", "version", version}
	if err := setIfNewer.Run(ctx, c.client.Client(), []string{c.key(companyID, productID)}, args...).Err(); err != nil {
		return fmt.Errorf("cache tombstone: %w", err)
	}
	return nil
}

// Delete drops a cached product outright.
func (c *ProductCache) Delete(ctx context.Context, companyID, productID uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(companyID, productID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *ProductCache) key(companyID, productID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", productCacheKeyPrefix, companyID, productID)
}

func encodeProduct(p *CachedProduct) []any {
	fields := []any{
		"id", p.ID.String(),
		"company_id", p.CompanyID.String(),
		"name", p.Name,
		"category", p.Category,
		"price", p.Price.String(),
		"qty_uploaded", p.QtyUploaded,
		"qty_current", p.QtyCurrent,
		"qty_sold", p.QtySold,
		"status", p.Status,
		"version", p.Version,
		"created_by", p.CreatedBy.String(),
		"created_at", p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"last_sold_by_name", p.LastSoldByName,
	}
	if p.LastSoldAt != nil {
		fields = append(fields, "last_sold_at", p.LastSoldAt.UTC().Format(time.RFC3339Nano))
	}
	if p.LastSoldByUID != nil {
		fields = append(fields, "last_sold_by_uid", p.LastSoldByUID.String())
	}
	return fields
}

func decodeProduct(vals map[string]string) (*CachedProduct, error) {
	var (
		p   CachedProduct
		err error
	)
	if p.ID, err = uuid.Parse(vals["id"]); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if p.CompanyID, err = uuid.Parse(vals["company_id"]); err != nil {
		return nil, fmt.Errorf("company_id: %w", err)
	}
	if p.CreatedBy, err = uuid.Parse(vals["created_by"]); err != nil {
		return nil, fmt.Errorf("created_by: %w", err)
	}
	if p.Price, err = decimal.NewFromString(vals["price"]); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	for field, dst := range map[string]*int64{
		"qty_uploaded": &p.QtyUploaded,
		"qty_current":  &p.QtyCurrent,
		"qty_sold":     &p.QtySold,
		"version":      &p.Version,
	} {
		if *dst, err = strconv.ParseInt(vals[field], 10, 64); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, vals["created_at"]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, vals["updated_at"]); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if s := vals["last_sold_at"]; s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("last_sold_at: %w", err)
		}
		p.LastSoldAt = &ts
	}
	if s := vals["last_sold_by_uid"]; s != "" {
		uid, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("last_sold_by_uid: %w", err)
		}
		p.LastSoldByUID = &uid
	}
	p.Name = vals["name"]
	p.Category = vals["category"]
	p.Status = vals["status"]
	p.LastSoldByName = vals["last_sold_by_name"]
	return &p, nil
}
