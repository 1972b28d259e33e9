package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/httputil"
	"github.com/dialbook/dialbook/internal/model"
	"github.com/dialbook/dialbook/internal/token"
)

// LoginEndpoint is the endpoint for exchanging user credentials for
// an access token.
const LoginEndpoint = "/login"

// SetupRoutes configures authentication routes.
func SetupRoutes(r *mux.Router, db database.UserDB, tokens *token.Issuer) {
	r.Handle(LoginEndpoint, loginHandler{db: db, tokens: tokens}).
		Methods(http.MethodPost)
}

type loginHandler struct {
	db     database.UserDB
	tokens *token.Issuer
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

func (h loginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidPayload, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	user, err := h.db.GetUserByUsername(ctx, request.Username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Error().Err(err).Msg("error looking up user")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}
	if err != nil || !CheckPasswordHash(request.Password, user.PasswordHash) {
		httputil.WriteError(w, model.RequestErrUnauthorized, "invalid username or password")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		log.Error().Err(err).Msg("error issuing token")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:    accessToken,
		Username: user.Username,
		Name:     user.Name,
	})
}
