package handlers

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
)

// LoginHandler exchanges credentials for an ID token.
type LoginHandler struct {
	auth identity.Authenticator
	log  logger.Logger
}

// NewLoginHandler returns a LoginHandler backed by auth.
func NewLoginHandler(auth identity.Authenticator, log logger.Logger) *LoginHandler {
	return &LoginHandler{auth: auth, log: log}
}

// Execute authenticates the user.
//
//	@Summary		Log in
//	@Description	Returns an ID token to send as "Authorization: Bearer <token>" on item requests.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identity.LoginRequest	true	"Credentials"
//	@Success		200		{object}	identity.LoginResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (h *LoginHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[identity.LoginRequest](w, r)
	if !ok {
		return
	}

	res := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if res.OK() {
		httpx.JSON(w, http.StatusOK, identity.LoginResponse{IDToken: res.Token})
		return
	}

	var failure *identity.Failure
	if errors.As(res.Err, &failure) {
		h.log.InfoContext(r.Context(), "login rejected", "username", req.Username)
		httpx.JSONError(w, http.StatusUnauthorized, failure.Message)
		return
	}
	h.log.ErrorContext(r.Context(), "login failed", "username", req.Username, "error", res.Err)
	httpx.JSONError(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
}
