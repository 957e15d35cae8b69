package client

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
)

// Messages shown in State.Error when the server gives nothing more specific.
const (
	MsgFetchFailed  = "Failed to fetch items"
	MsgSaveFailed   = "Failed to save item"
	MsgDeleteFailed = "Failed to delete item"
	MsgLoginFailed  = "Login failed"
)

// View is the screen the user is on.
type View int

const (
	ViewLogin View = iota
	ViewItems
)

// FormData holds the create/edit form fields.
type FormData struct {
	Name        string
	Description string
}

// State is a snapshot of everything a user interface renders.
type State struct {
	View        View
	Session     string
	Items       []Item
	Loading     bool
	Error       string
	FormVisible bool
	EditingItem *Item
	FormData    FormData
	// PendingDelete is the id awaiting confirmation, if any.
	PendingDelete *int64
}

// Controller is the client-side state machine. Operations block until the
// network call they make returns and report failures through State.Error,
// never to the caller. While an operation is in flight Loading is set and
// every other user action is ignored.
type Controller struct {
	api  API
	auth identity.Authenticator
	log  logger.Logger

	mu    sync.Mutex
	state State
}

// NewController returns a Controller on the login view.
func NewController(api API, auth identity.Authenticator, log logger.Logger) *Controller {
	return &Controller{api: api, auth: auth, log: log}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Items = slices.Clone(c.state.Items)
	if c.state.EditingItem != nil {
		it := *c.state.EditingItem
		s.EditingItem = &it
	}
	if c.state.PendingDelete != nil {
		id := *c.state.PendingDelete
		s.PendingDelete = &id
	}
	return s
}

// Login authenticates and, on success, switches to the items view and
// loads the items.
func (c *Controller) Login(ctx context.Context, username, password string) {
	if !c.begin(nil) {
		return
	}
	defer c.end()

	res := c.auth.Authenticate(ctx, username, password)
	if !res.OK() {
		c.log.WarnContext(ctx, "login failed", "username", username, "error", res.Err)
		c.set(func(s *State) { s.Error = loginMessage(res.Err) })
		return
	}

	c.set(func(s *State) {
		s.Session = res.Token
		s.View = ViewItems
	})
	c.fetch(ctx, res.Token)
}

// Logout drops the session and all item state.
func (c *Controller) Logout() {
	c.act(func(s *State) { *s = State{View: ViewLogin} })
}

// LoadItems replaces Items with the server's list. On failure Items is
// left as it was.
func (c *Controller) LoadItems(ctx context.Context) {
	var token string
	if !c.begin(func(s *State) bool {
		token = s.Session
		return true
	}) {
		return
	}
	defer c.end()

	c.fetch(ctx, token)
}

// ShowForm opens an empty create form.
func (c *Controller) ShowForm() {
	c.act(func(s *State) {
		s.FormVisible = true
		s.EditingItem = nil
		s.FormData = FormData{}
	})
}

// SetFormData replaces the form fields.
func (c *Controller) SetFormData(fd FormData) {
	c.act(func(s *State) { s.FormData = fd })
}

// BeginEdit opens the form prefilled from item.
func (c *Controller) BeginEdit(item Item) {
	c.act(func(s *State) {
		var desc string
		if item.Description != nil {
			desc = *item.Description
		}
		s.EditingItem = &item
		s.FormData = FormData{Name: item.Name, Description: desc}
		s.FormVisible = true
	})
}

// CancelForm hides the form and forgets its contents.
func (c *Controller) CancelForm() {
	c.act(func(s *State) {
		s.FormVisible = false
		s.EditingItem = nil
		s.FormData = FormData{}
	})
}

// Submit saves the form: an update when editing, a create otherwise. On
// success the form closes and the list is reloaded; on failure the form
// stays open for a retry.
func (c *Controller) Submit(ctx context.Context) {
	var (
		token   string
		editing *Item
		input   ItemInput
	)
	if !c.begin(func(s *State) bool {
		if !s.FormVisible {
			return false
		}
		token, editing = s.Session, s.EditingItem
		input = ItemInput{Name: s.FormData.Name, Description: s.FormData.Description}
		return true
	}) {
		return
	}
	defer c.end()

	var err error
	if editing != nil {
		_, err = c.api.Update(ctx, token, editing.ID, input)
	} else {
		_, err = c.api.Create(ctx, token, input)
	}
	if err != nil {
		c.log.WarnContext(ctx, "save item failed", "error", err)
		c.set(func(s *State) { s.Error = failureMessage(err, MsgSaveFailed) })
		return
	}

	c.set(func(s *State) {
		s.FormData = FormData{}
		s.FormVisible = false
		s.EditingItem = nil
	})
	c.fetch(ctx, token)
}

// RequestDelete asks for confirmation before deleting id.
func (c *Controller) RequestDelete(id int64) {
	c.act(func(s *State) { s.PendingDelete = &id })
}

// CancelDelete drops a pending delete.
func (c *Controller) CancelDelete() {
	c.act(func(s *State) { s.PendingDelete = nil })
}

// ConfirmDelete deletes the pending item and reloads the list.
func (c *Controller) ConfirmDelete(ctx context.Context) {
	var (
		token string
		id    int64
	)
	if !c.begin(func(s *State) bool {
		if s.PendingDelete == nil {
			return false
		}
		token, id = s.Session, *s.PendingDelete
		s.PendingDelete = nil
		return true
	}) {
		return
	}
	defer c.end()

	if err := c.api.Delete(ctx, token, id); err != nil {
		c.log.WarnContext(ctx, "delete item failed", "item_id", id, "error", err)
		c.set(func(s *State) { s.Error = failureMessage(err, MsgDeleteFailed) })
		return
	}
	c.fetch(ctx, token)
}

// fetch runs inside an operation that already holds Loading.
func (c *Controller) fetch(ctx context.Context, token string) {
	items, err := c.api.List(ctx, token)
	if err != nil {
		c.log.WarnContext(ctx, "list items failed", "error", err)
		c.set(func(s *State) { s.Error = failureMessage(err, MsgFetchFailed) })
		return
	}
	c.set(func(s *State) {
		s.Items = items
		s.Error = ""
	})
}

// begin starts a network operation. It returns false, changing nothing,
// when another operation is in flight or guard rejects the current state.
func (c *Controller) begin(guard func(*State) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading {
		return false
	}
	if guard != nil && !guard(&c.state) {
		return false
	}
	c.state.Loading = true
	c.state.Error = ""
	return true
}

func (c *Controller) end() {
	c.set(func(s *State) { s.Loading = false })
}

func (c *Controller) set(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// act applies a local user action unless an operation is in flight.
func (c *Controller) act(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading {
		return
	}
	fn(&c.state)
}

func loginMessage(err error) string {
	var f *identity.Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return MsgLoginFailed
}

// failureMessage prefers the server's message for client errors, such as
// a rejected name or an expired session.
func failureMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
