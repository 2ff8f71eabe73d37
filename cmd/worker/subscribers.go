package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	pkgcache "github.com/blueledger/blueledger/pkg/cache"
	"github.com/blueledger/blueledger/pkg/events"
	"github.com/blueledger/blueledger/pkg/logger"
	accountevents "github.com/blueledger/blueledger/services/account/domain/events"
	inventorysvcs "github.com/blueledger/blueledger/services/inventory/application/services"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	inventoryevents "github.com/blueledger/blueledger/services/inventory/domain/events"
	"github.com/blueledger/blueledger/services/inventory/domain/models"
	messagingevents "github.com/blueledger/blueledger/services/messaging/domain/events"
)

type productReader interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error)
}

type productCache interface {
	Set(ctx context.Context, p *pkgcache.CachedProduct) (bool, error)
	Tombstone(ctx context.Context, companyID, productID uuid.UUID, version int64) error
}

type sessionRevoker interface {
	RevokeUser(ctx context.Context, uid uuid.UUID) (int, error)
}

type handler = func(context.Context, *message.Message) error

// subscribers builds the event handlers of the worker process. Handlers must
// be idempotent: EventBus retries on failure and the outbox delivers at
// least once.
type subscribers struct {
	products productReader
	cache    productCache
	sessions sessionRevoker
	log      logger.Logger
}

func (s *subscribers) handlers() map[string]handler {
	return map[string]handler{
		inventoryevents.TopicProductCreated:   s.warmProduct,
		inventoryevents.TopicProductUpdated:   s.warmProduct,
		inventoryevents.TopicProductRestocked: s.warmProduct,
		inventoryevents.TopicProductSold:      s.productSold,
		inventoryevents.TopicProductDeleted:   s.productDeleted,
		accountevents.TopicWorkerProvisioned:  s.workerProvisioned,
		accountevents.TopicWorkerRemoved:      s.workerRemoved,
		accountevents.TopicCompanyCreated:     s.companyCreated,
		messagingevents.TopicMessagePosted:    s.messagePosted,
	}
}

// warmProduct reloads the committed row and writes it to the read model. The
// cache refuses versions older than what it holds, so replays are harmless.
func (s *subscribers) warmProduct(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[inventoryevents.ProductChangedEvent](msg)
	if err != nil {
		return err
	}
	return s.refresh(ctx, evt.CompanyID, evt.ProductID)
}

func (s *subscribers) productSold(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[inventoryevents.ProductSoldEvent](msg)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "sale recorded",
		"sale_id", evt.SaleID,
		"product_id", evt.ProductID,
		"company_id", evt.CompanyID,
		"units", evt.UnitsSold,
		"qty_current", evt.QtyCurrent,
		"sold_by", evt.SoldByUID,
	)
	return s.refresh(ctx, evt.CompanyID, evt.ProductID)
}

func (s *subscribers) refresh(ctx context.Context, companyID, productID uuid.UUID) error {
	p, err := s.products.GetByID(ctx, companyID, productID)
	if errors.Is(err, inventorydomain.ErrProductNotFound) {
		// deleted since; product.deleted tombstones it
		return nil
	}
	if err != nil {
		return fmt.Errorf("load product %s: %w", productID, err)
	}
	if _, err := s.cache.Set(ctx, inventorysvcs.ToCached(p)); err != nil {
		return fmt.Errorf("warm product %s: %w", productID, err)
	}
	return nil
}

func (s *subscribers) productDeleted(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[inventoryevents.ProductDeletedEvent](msg)
	if err != nil {
		return err
	}
	if err := s.cache.Tombstone(ctx, evt.CompanyID, evt.ProductID, evt.RowVersion); err != nil {
		return fmt.Errorf("tombstone product %s: %w", evt.ProductID, err)
	}
	return nil
}

func (s *subscribers) workerProvisioned(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[accountevents.WorkerProvisionedEvent](msg)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "worker provisioned", "worker_uid", evt.WorkerUID, "company_id", evt.CompanyID, "created_by", evt.CreatedBy)
	return nil
}

func (s *subscribers) workerRemoved(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[accountevents.WorkerRemovedEvent](msg)
	if err != nil {
		return err
	}
	n, err := s.sessions.RevokeUser(ctx, evt.WorkerUID)
	if err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", evt.WorkerUID, err)
	}
	s.log.InfoContext(ctx, "worker removed", "worker_uid", evt.WorkerUID, "company_id", evt.CompanyID, "sessions_revoked", n)
	return nil
}

func (s *subscribers) companyCreated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[accountevents.CompanyCreatedEvent](msg)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "company created", "company_id", evt.CompanyID, "admin_uid", evt.AdminUID)
	return nil
}

func (s *subscribers) messagePosted(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[messagingevents.MessagePostedEvent](msg)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "message posted", "message_id", evt.MessageID, "company_id", evt.CompanyID, "from_uid", evt.FromUID)
	return nil
}
