package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/tenant"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/messaging/application/services"
	messagingdomain "github.com/blueledger/blueledger/services/messaging/domain"
	"github.com/blueledger/blueledger/services/messaging/domain/models"
)

const (
	streamReconnect = 2 * time.Second
	streamKeepAlive = 15 * time.Second
)

// MessageResponse is the JSON shape of a message.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	FromUID   uuid.UUID `json:"from_uid"`
	FromName  string    `json:"from_name"  example:"Ana"`
	FromEmail string    `json:"from_email" example:"ana@shop.io"`
	Text      string    `json:"text"       example:"Cola is running low"`
	CreatedAt time.Time `json:"created_at"`
} // @name MessageResponse

// MessageListResponse lists messages, newest first.
type MessageListResponse struct {
	Items []MessageResponse `json:"items"`
} // @name MessageListResponse

// MessageSnapshot is one event of the message stream.
type MessageSnapshot struct {
	Seq   uint64            `json:"seq"`
	Items []MessageResponse `json:"items"`
	At    time.Time         `json:"at"`
} // @name MessageSnapshot

// PostMessageRequest is the request body for POST /api/messages.
type PostMessageRequest struct {
	Text string `json:"text" validate:"notblank" example:"Cola is running low"`
} // @name PostMessageRequest

func toMessageResponses(ms []*models.Message) []MessageResponse {
	out := make([]MessageResponse, len(ms))
	for i, m := range ms {
		out[i] = MessageResponse{
			ID:        m.ID,
			CompanyID: m.CompanyID,
			FromUID:   m.FromUID,
			FromName:  m.FromName,
			FromEmail: m.FromEmail,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}

// MessagesHandler serves /api/messages.
type MessagesHandler struct {
	svc *appsvcs.Services
}

// NewMessagesHandler returns a MessagesHandler backed by the given services.
func NewMessagesHandler(svc *appsvcs.Services) *MessagesHandler {
	return &MessagesHandler{svc: svc}
}

// List returns messages visible to the caller.
//
//	@Summary		List messages
//	@Description	Admins see every message of the company; workers see their own
//	@Tags			messages
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of messages"	default(50)
//	@Success		200		{object}	MessageListResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Router			/messages [get]
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errhttp.WriteError(w, r, fmt.Errorf("%w: limit must be an integer", messagingdomain.ErrInvalidMessage))
			return
		}
		limit = n
	}

	ms, err := h.svc.Message.List(r.Context(), caller, limit)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, MessageListResponse{Items: toMessageResponses(ms)})
}

// Post stores a message from the caller.
//
//	@Summary	Post message
//	@Tags		messages
//	@Accept		json
//	@Produce	json
//	@Param		request	body		PostMessageRequest	true	"Message"
//	@Success	201		{object}	MessageResponse
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	422		{object}	pkgvalidator.ValidationResponse
//	@Router		/messages [post]
func (h *MessagesHandler) Post(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[PostMessageRequest](w, r)
	if !ok {
		return
	}
	m, err := h.svc.Message.Post(r.Context(), caller, req.Text)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMessageResponses([]*models.Message{m})[0])
}

// Delete removes a message of the caller's company.
//
//	@Summary	Delete message
//	@Tags		messages
//	@Param		id	path	string	true	"Message ID"	format(uuid)
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Router		/messages/{id} [delete]
func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, r, fmt.Errorf("%w: message id must be a UUID", messagingdomain.ErrInvalidMessage))
		return
	}
	if err := h.svc.Message.Delete(r.Context(), caller, id); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream sends "snapshot" events with the messages List would return.
//
//	@Summary	Stream messages
//	@Tags		messages
//	@Produce	text/event-stream
//	@Success	200	{object}	MessageSnapshot
//	@Router		/messages/stream [get]
func (h *MessagesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	snaps, err := h.svc.Message.Subscribe(r.Context(), caller)
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
			ev := MessageSnapshot{Seq: snap.Seq, Items: toMessageResponses(snap.Items), At: snap.At}
			if err := sse.Event("snapshot", strconv.FormatUint(snap.Seq, 10), ev); err != nil {
				return
			}
		}
	}
}

func callerFrom(w http.ResponseWriter, r *http.Request) (tenant.Caller, bool) {
	caller, err := tenant.FromContext(r.Context())
	if err != nil {
		errhttp.WriteError(w, r, auth.ErrUnauthenticated)
		return tenant.Caller{}, false
	}
	return caller, true
}
