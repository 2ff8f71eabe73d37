package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

const (
	streamReconnect = 2 * time.Second
	streamKeepAlive = 15 * time.Second
)

// ProductSnapshot is one event of the product stream.
type ProductSnapshot struct {
	Seq   uint64            `json:"seq"`
	Items []ProductResponse `json:"items"`
	At    time.Time         `json:"at"`
} // @name ProductSnapshot

// StreamProductsHandler handles GET /api/products/stream.
type StreamProductsHandler struct {
	svc *appsvcs.Services
}

// NewStreamProductsHandler returns a StreamProductsHandler backed by the given services.
func NewStreamProductsHandler(svc *appsvcs.Services) *StreamProductsHandler {
	return &StreamProductsHandler{svc: svc}
}

// Execute streams "snapshot" events with the caller's company products: one
// immediately, then one after every committed change.
//
//	@Summary	Stream products
//	@Tags		products
//	@Produce	text/event-stream
//	@Success	200	{object}	ProductSnapshot
//	@Router		/products/stream [get]
func (h *StreamProductsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	snaps, err := h.svc.Product.Subscribe(r.Context(), caller)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	sse, err := httpx.NewSSEWriter(w, streamReconnect)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := sse.Comment("keep-alive"); err != nil {
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			ev := ProductSnapshot{Seq: snap.Seq, Items: toProductResponses(snap.Items), At: snap.At}
			if err := sse.Event("snapshot", strconv.FormatUint(snap.Seq, 10), ev); err != nil {
				return
			}
		}
	}
}
