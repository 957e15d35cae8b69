package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"Item not found"`
} // @name ErrorResponse

// MessageResponse acknowledges a delete.
type MessageResponse struct {
	Message string `json:"message" example:"Item deleted"`
} // @name MessageResponse

// ServeHTTP adapts a chi request into an Operation and writes its Result.
// The {id} URL parameter, when routed, becomes Operation.ID.
func (h *ResourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := Operation{Method: r.Method}
	if id := chi.URLParam(r, "id"); id != "" {
		op.ID = &id
	}
	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httpx.JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			h.log.ErrorContext(r.Context(), "read request body", "error", err)
			errhttp.WriteError(w, err)
			return
		}
		op.Body = body
	}

	res := h.Handle(r.Context(), op)
	writeHeaders(w.Header(), res.Headers)
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

// writeHeaders copies result headers onto dst, replacing earlier values.
// An Access-Control-Allow-Origin already set by the CORS middleware wins,
// since it echoes the request's allowed origin.
func writeHeaders(dst, src http.Header) {
	for k, vs := range src {
		if k == "Access-Control-Allow-Origin" && dst.Get(k) != "" {
			continue
		}
		dst[k] = append([]string(nil), vs...)
	}
}

// ListItems returns every item ordered by id.
//
//	@Summary		List items
//	@Tags			items
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		ItemResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items [get]
func (h *ResourceHandler) ListItems(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }

// GetItem returns one item.
//
//	@Summary		Get item
//	@Tags			items
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	ItemResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [get]
func (h *ResourceHandler) GetItem(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }

// CreateItem creates an item.
//
//	@Summary		Create item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateItemRequest	true	"New item"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [post]
func (h *ResourceHandler) CreateItem(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }

// UpdateItem applies a partial update.
//
//	@Summary		Update item
//	@Description	Fields left out of the body keep their stored value. A null description clears it.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Item ID"
//	@Param			request	body		UpdateItemRequest	true	"Fields to change"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items/{id} [put]
func (h *ResourceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }

// DeleteItem removes an item.
//
//	@Summary		Delete item
//	@Tags			items
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	MessageResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id} [delete]
func (h *ResourceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }
