package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ghuser/itemsapi/pkg/auth"
	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ItemService is the application service behind the resource handler.
type ItemService interface {
	List(ctx context.Context) ([]*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	Create(ctx context.Context, name string, description *string) (*models.Item, error)
	Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
}

// Operation is one request against the items resource: a verb, an optional
// path id and the raw JSON body.
type Operation struct {
	Method string
	ID     *string
	Body   []byte
}

// Result is the response for an Operation. Body is always JSON.
type Result struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// ItemResponse is the JSON shape of an item.
type ItemResponse struct {
	ID          int64     `json:"id"          example:"1"`
	Name        string    `json:"name"        example:"Item A"`
	Description *string   `json:"description" example:"first"`
	CreatedAt   time.Time `json:"created_at"  example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at"  example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// CreateItemRequest is the request body for POST /items.
type CreateItemRequest struct {
	Name        *string `json:"name"        example:"Item A"`
	Description *string `json:"description" example:"first"`
} // @name CreateItemRequest

// UpdateItemRequest is the request body for PUT /items/{id}. Absent fields
// are left unchanged; a null description clears it.
type UpdateItemRequest struct {
	Name        models.Optional[string]  `json:"name"        swaggertype:"string" example:"Item A"`
	Description models.Optional[*string] `json:"description" swaggertype:"string" example:"updated"`
} // @name UpdateItemRequest

// ResourceConfig configures a ResourceHandler.
type ResourceConfig struct {
	// AllowOrigin is written as Access-Control-Allow-Origin on every
	// response. Empty leaves the header to the CORS middleware.
	AllowOrigin string
	Metrics     *telemetry.OperationCounter
}

// ResourceHandler maps operations on the items resource to the item service
// and shapes every outcome into a JSON Result.
type ResourceHandler struct {
	items   ItemService
	log     logger.Logger
	origin  string
	metrics *telemetry.OperationCounter
}

// NewResourceHandler returns a ResourceHandler backed by items.
func NewResourceHandler(items ItemService, log logger.Logger, cfg ResourceConfig) *ResourceHandler {
	return &ResourceHandler{
		items:   items,
		log:     log,
		origin:  cfg.AllowOrigin,
		metrics: cfg.Metrics,
	}
}

// Handle runs op and returns its response. It never returns a 5xx body that
// carries internal detail; the underlying error is logged instead.
func (h *ResourceHandler) Handle(ctx context.Context, op Operation) Result {
	name, res := h.dispatch(ctx, op)
	h.metrics.Record(ctx, name, res.Status)
	return res
}

func (h *ResourceHandler) dispatch(ctx context.Context, op Operation) (string, Result) {
	id, hasID := "", op.ID != nil && *op.ID != ""
	if hasID {
		id = *op.ID
	}

	switch op.Method {
	case http.MethodGet:
		if !hasID {
			return "list", h.list(ctx)
		}
		return "get", h.get(ctx, id)
	case http.MethodPost:
		return "create", h.create(ctx, op.Body)
	case http.MethodPut:
		if !hasID {
			return "update", h.fail(ctx, "update", itemdomain.ErrMissingID)
		}
		return "update", h.update(ctx, id, op.Body)
	case http.MethodDelete:
		if !hasID {
			return "delete", h.fail(ctx, "delete", itemdomain.ErrMissingID)
		}
		return "delete", h.delete(ctx, id)
	default:
		return "unsupported", h.fail(ctx, "unsupported", fmt.Errorf("%w: %s", itemdomain.ErrMethodNotAllowed, op.Method))
	}
}

func (h *ResourceHandler) list(ctx context.Context) Result {
	items, err := h.items.List(ctx)
	if err != nil {
		return h.fail(ctx, "list", err)
	}
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toResponse(it))
	}
	return h.respond(http.StatusOK, out)
}

func (h *ResourceHandler) get(ctx context.Context, rawID string) Result {
	id, err := parseID(rawID)
	if err != nil {
		return h.fail(ctx, "get", err)
	}
	item, err := h.items.GetByID(ctx, id)
	if err != nil {
		return h.fail(ctx, "get", err)
	}
	return h.respond(http.StatusOK, toResponse(item))
}

func (h *ResourceHandler) create(ctx context.Context, body []byte) Result {
	var req CreateItemRequest
	if err := decode(body, &req); err != nil {
		return h.fail(ctx, "create", err)
	}
	var name string
	if req.Name != nil {
		name = *req.Name
	}
	item, err := h.items.Create(ctx, name, req.Description)
	if err != nil {
		return h.fail(ctx, "create", err)
	}
	return h.respond(http.StatusCreated, toResponse(item))
}

func (h *ResourceHandler) update(ctx context.Context, rawID string, body []byte) Result {
	id, err := parseID(rawID)
	if err != nil {
		return h.fail(ctx, "update", err)
	}
	var req UpdateItemRequest
	if err := decode(body, &req); err != nil {
		return h.fail(ctx, "update", err)
	}
	item, err := h.items.Update(ctx, id, models.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(ctx, "update", err)
	}
	return h.respond(http.StatusOK, toResponse(item))
}

func (h *ResourceHandler) delete(ctx context.Context, rawID string) Result {
	id, err := parseID(rawID)
	if err != nil {
		return h.fail(ctx, "delete", err)
	}
	if err := h.items.Delete(ctx, id); err != nil {
		return h.fail(ctx, "delete", err)
	}
	return h.respond(http.StatusOK, httpx.MessageBody{Message: "Item deleted"})
}

// fail logs err and turns it into an error Result. Server errors are
// reported to Sentry and answered with the generic message.
func (h *ResourceHandler) fail(ctx context.Context, op string, err error) Result {
	status, msg := errhttp.Resolve(err)
	subject, _ := auth.SubjectFromCtx(ctx)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(ctx, "item operation failed", "operation", op, "subject", subject, "error", err)
		telemetry.CaptureError(ctx, err)
	} else {
		h.log.DebugContext(ctx, "item operation rejected", "operation", op, "subject", subject, "status", status, "error", err)
	}
	return h.respond(status, httpx.ErrorBody{Error: msg})
}

func (h *ResourceHandler) respond(status int, v any) Result {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + httpx.InternalErrorMessage + `"}`)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if h.origin != "" {
		headers.Set("Access-Control-Allow-Origin", h.origin)
	}
	return Result{Status: status, Headers: headers, Body: body}
}

// parseID accepts positive base-10 integers. Anything else cannot name a
// stored item and is reported as not found.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("item %q: %w", raw, itemdomain.ErrItemNotFound)
	}
	return id, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", itemdomain.ErrMalformedPayload, err)
	}
	return nil
}

func toResponse(it *models.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name.String(),
		Description: it.Description,
		CreatedAt:   it.CreatedAt.UTC(),
		UpdatedAt:   it.UpdatedAt.UTC(),
	}
}
