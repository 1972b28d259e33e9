// Package person implements the /api/persons CRUD surface.
package person

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/auth"
	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/httputil"
	"github.com/dialbook/dialbook/internal/model"
)

// PersonsEndpoint is the collection endpoint for phonebook entries.
const PersonsEndpoint = "/persons"

// SetupRoutes configures routes for phonebook entries. Only the
// creation path is gated behind a bearer token: entries are attributed
// to the authenticated user at creation, while reads and edits follow
// the open contract of the original API.
func SetupRoutes(r *mux.Router, db database.Database, mw *auth.Middleware) {
	h := handler{db: db, validate: validator.New()}

	r.HandleFunc(PersonsEndpoint, h.list).Methods(http.MethodGet)
	r.Handle(PersonsEndpoint, mw.BearerAuthenticated(http.HandlerFunc(h.create))).
		Methods(http.MethodPost)

	item := PersonsEndpoint + "/{id}"
	r.HandleFunc(item, h.get).Methods(http.MethodGet)
	r.HandleFunc(item, h.replace).Methods(http.MethodPut)
	r.HandleFunc(item, h.delete).Methods(http.MethodDelete)
}

type handler struct {
	db       database.Database
	validate *validator.Validate
}

func (h handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	persons, err := h.db.ListPersons(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error listing persons")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, persons)
}

func (h handler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := model.ValidateID(id); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidID, id)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	person, err := h.db.GetPerson(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		httputil.WriteError(w, model.RequestErrNotFound, id)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("error getting person")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, person)
}

func (h handler) create(w http.ResponseWriter, r *http.Request) {
	var payload model.PersonUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidPayload, err.Error())
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		httputil.WriteError(w, model.RequestErrMissingField, missingFields(err))
		return
	}

	person := &model.Person{
		Name:   payload.Name,
		Number: payload.Number,
		UserID: auth.UserID(r.Context()),
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	created, err := h.db.CreatePerson(ctx, person)
	if err != nil {
		log.Error().Err(err).Msg("error creating person")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h handler) replace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := model.ValidateID(id); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidID, id)
		return
	}

	var payload model.PersonUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidPayload, err.Error())
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		httputil.WriteError(w, model.RequestErrMissingField, missingFields(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	updated, err := h.db.ReplacePerson(ctx, id, payload)
	if errors.Is(err, database.ErrNotFound) {
		httputil.WriteError(w, model.RequestErrNotFound, id)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("error replacing person")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h handler) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := model.ValidateID(id); err != nil {
		httputil.WriteError(w, model.RequestErrInvalidID, id)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	err := h.db.DeletePerson(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		httputil.WriteError(w, model.RequestErrNotFound, id)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("error deleting person")
		httputil.WriteError(w, model.RequestErrStorage, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// missingFields renders a validation error as a field list.
func missingFields(err error) string {
	validateErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, 0, len(validateErrs))
	for _, fieldErr := range validateErrs {
		fields = append(fields, strings.ToLower(fieldErr.Field()))
	}
	return strings.Join(fields, ", ")
}
