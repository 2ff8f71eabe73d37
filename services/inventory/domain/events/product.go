package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topics published by the inventory context. Every product event carries
// company_id in the message metadata so consumers can scope per tenant.
const (
	TopicProductCreated   = "product.created"
	TopicProductRestocked = "product.restocked"
	TopicProductSold      = "product.sold"
	TopicProductUpdated   = "product.updated"
	TopicProductDeleted   = "product.deleted"
)

// ProductChangedEvent is published for created, updated and restocked
// products. It carries the full row after the change so consumers can warm a
// read model without another query.
type ProductChangedEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	Version     int             `json:"version"`
	ProductID   uuid.UUID       `json:"product_id"`
	CompanyID   uuid.UUID       `json:"company_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	QtyUploaded int64           `json:"qty_uploaded"`
	QtyCurrent  int64           `json:"qty_current"`
	QtySold     int64           `json:"qty_sold"`
	Status      string          `json:"status"`
	RowVersion  int64           `json:"row_version"`
	Added       int64           `json:"added,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// ProductSoldEvent is published once per committed sale.
type ProductSoldEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	Version     int             `json:"version"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	CompanyID   uuid.UUID       `json:"company_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitsSold   int64           `json:"units_sold"`
	QtyCurrent  int64           `json:"qty_current"`
	SoldByUID   uuid.UUID       `json:"sold_by_uid"`
	SoldByName  string          `json:"sold_by_name"`
	RowVersion  int64           `json:"row_version"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// ProductDeletedEvent is published when a product row is removed.
type ProductDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ProductID  uuid.UUID `json:"product_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	RowVersion int64     `json:"row_version"`
	OccurredAt time.Time `json:"occurred_at"`
}
