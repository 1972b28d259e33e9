// Package user implements user registration and listing.
package user

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/auth"
	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/httputil"
	"github.com/dialbook/dialbook/internal/model"
)

// UsersEndpoint is the collection endpoint for users.
const UsersEndpoint = "/users"

// SetupRoutes configures routes for user management.
func SetupRoutes(r *mux.Router, db database.Database) {
	h := handler{db: db, validate: validator.New()}
	r.HandleFunc(UsersEndpoint, h.register).Methods(http.MethodPost)
	r.HandleFunc(UsersEndpoint, h.list).Methods(http.MethodGet)
}

type handler struct {
	db       database.Database
	validate *validator.Validate
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=3"`
}

// userListing is a user with its owned phonebook entries resolved.
type userListing struct {
	*model.UserData
	Persons []*model.Person `json:"persons"`
}

func (h handler) register(w http.ResponseWriter, r *http.Request) {
	var request registerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidPayload, err.Error())
		return
	}

	if err := h.validate.Struct(request); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidPayload,
			"username and password must be at least 3 characters")
		return
	}

	hash, err := auth.GeneratePasswordHash(request.Password)
	if err != nil {
		log.Error().Err(err).Msg("error hashing password")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	registered, err := h.db.RegisterUser(ctx, &model.User{
		Username:     request.Username,
		Name:         request.Name,
		PasswordHash: hash,
	})
	if errors.Is(err, database.ErrUsernameTaken) {
		httputil.WriteError(w, model.RequestErrInvalidPayload, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("error registering user")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, registered.ToUserData())
}

func (h handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	users, err := h.db.ListUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error listing users")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	listings := make([]*userListing, 0, len(users))
	for _, u := range users {
		persons, err := h.db.PersonsByUser(ctx, u.ID)
		if err != nil {
			log.Error().Err(err).Str("user", u.ID).Msg("error listing user persons")
			httputil.WriteError(w, model.RequestErrStorage, "")
			return
		}
		listings = append(listings, &userListing{
			UserData: u.ToUserData(),
			Persons:  persons,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, listings)
}
