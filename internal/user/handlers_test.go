package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/model"
)

func newTestRouter(t *testing.T) (*mux.Router, *database.BadgerDB) {
	t.Helper()
	db, err := database.NewBadgerDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := mux.NewRouter()
	SetupRoutes(r, db)
	return r, db
}

func postUser(t *testing.T, r *mux.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, UsersEndpoint, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterUser(t *testing.T) {
	r, db := newTestRouter(t)

	rec := postUser(t, r, `{"username":"mluukkai","name":"Matti Luukkainen","password":"salainen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.UserData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "mluukkai", created.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	stored, err := db.GetUserByUsername(context.Background(), "mluukkai")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "salainen", stored.PasswordHash)
}

func TestRegisterUserValidation(t *testing.T) {
	r, db := newTestRouter(t)

	tt := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","password":"salainen"}`},
		{"short password", `{"username":"mluukkai","password":"ab"}`},
		{"missing username", `{"password":"salainen"}`},
		{"missing password", `{"username":"mluukkai"}`},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			rec := postUser(t, r, test.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRegisterUserDuplicate(t *testing.T) {
	r, db := newTestRouter(t)

	rec := postUser(t, r, `{"username":"root","password":"sekret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postUser(t, r, `{"username":"root","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unique")

	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListUsersWithPersons(t *testing.T) {
	r, db := newTestRouter(t)

	rec := postUser(t, r, `{"username":"root","password":"sekret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.UserData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	_, err := db.CreatePerson(context.Background(), &model.Person{
		Name:   "Arto Hellas",
		Number: model.Number("040-123456"),
		UserID: created.ID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, UsersEndpoint, nil)
	listRec := httptest.NewRecorder()
	r.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listings []struct {
		Username string          `json:"username"`
		Persons  []*model.Person `json:"persons"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "root", listings[0].Username)
	require.Len(t, listings[0].Persons, 1)
	assert.Equal(t, "Arto Hellas", listings[0].Persons[0].Name)
}
