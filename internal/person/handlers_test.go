package person

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialbook/dialbook/internal/auth"
	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/model"
	"github.com/dialbook/dialbook/internal/token"
)

const absentID = "5fd37ba0-7f5c-4a5a-9a3e-000000000000"

type testServer struct {
	router *mux.Router
	db     *database.BadgerDB
	owner  *model.User
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.NewBadgerDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	owner, err := db.RegisterUser(context.Background(), &model.User{
		Username: "root",
		Name:     "Superuser",
	})
	require.NoError(t, err)

	tokens := token.NewIssuer("test-secret", time.Hour)
	accessToken, err := tokens.IssueAccessToken(owner)
	require.NoError(t, err)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	SetupRoutes(api, db, auth.NewMiddleware(tokens))

	return &testServer{router: r, db: db, owner: owner, token: accessToken}
}

func (s *testServer) seedPerson(t *testing.T, name, number string) *model.Person {
	t.Helper()
	created, err := s.db.CreatePerson(context.Background(), &model.Person{
		Name:   name,
		Number: model.Number(number),
		UserID: s.owner.ID,
	})
	require.NoError(t, err)
	return created
}

func (s *testServer) do(t *testing.T, method, path, body, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) count(t *testing.T) int {
	t.Helper()
	persons, err := s.db.ListPersons(context.Background())
	require.NoError(t, err)
	return len(persons)
}

func decodePersons(t *testing.T, rec *httptest.ResponseRecorder) []*model.Person {
	t.Helper()
	var persons []*model.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &persons))
	return persons
}

func TestListPersons(t *testing.T) {
	s := newTestServer(t)
	s.seedPerson(t, "Arto Hellas", "040-123456")
	s.seedPerson(t, "Ada Lovelace", "39-44-5323523")

	rec := s.do(t, http.MethodGet, "/api/persons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	persons := decodePersons(t, rec)
	require.Len(t, persons, 2)
	for _, p := range persons {
		require.NotNil(t, p.User)
		assert.Equal(t, "root", p.User.Username)
	}
}

func TestListPersonsEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/persons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetPerson(t *testing.T) {
	s := newTestServer(t)
	created := s.seedPerson(t, "Arto Hellas", "040-123456")

	tt := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"existing", created.ID, http.StatusOK},
		{"well-formed but absent", absentID, http.StatusNotFound},
		{"malformed", "not-a-valid-id", http.StatusBadRequest},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/persons/"+test.id, "", "")
			assert.Equal(t, test.wantStatus, rec.Code)
		})
	}
}

func TestCreatePerson(t *testing.T) {
	s := newTestServer(t)
	before := s.count(t)

	rec := s.do(t, http.MethodPost, "/api/persons",
		`{"name":"Jane","number":20000203}`, "bearer "+s.token)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Jane", created.Name)
	assert.Equal(t, model.Number("20000203"), created.Number)
	require.NotNil(t, created.User)
	assert.Equal(t, s.owner.ID, created.User.ID)

	assert.Equal(t, before+1, s.count(t))

	listRec := s.do(t, http.MethodGet, "/api/persons", "", "")
	require.Equal(t, http.StatusOK, listRec.Code)
	names := []string{}
	for _, p := range decodePersons(t, listRec) {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "Jane")
}

func TestCreatePersonStringNumber(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/persons",
		`{"name":"Arto","number":"040-123456"}`, "bearer "+s.token)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreatePersonMissingFields(t *testing.T) {
	s := newTestServer(t)

	tt := []struct {
		name string
		body string
	}{
		{"missing name", `{"number":12345}`},
		{"empty name", `{"name":"","number":12345}`},
		{"missing number", `{"name":"Jane"}`},
		{"empty body", `{}`},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			before := s.count(t)
			rec := s.do(t, http.MethodPost, "/api/persons", test.body, "bearer "+s.token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, before, s.count(t))
		})
	}
}

func TestCreatePersonUnauthorized(t *testing.T) {
	s := newTestServer(t)

	tt := []struct {
		name       string
		authHeader string
	}{
		{"no token", ""},
		{"malformed header", "bearer"},
		{"invalid token", "bearer not.a.token"},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			before := s.count(t)
			rec := s.do(t, http.MethodPost, "/api/persons",
				`{"name":"Jane","number":20000203}`, test.authHeader)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, before, s.count(t))
		})
	}
}

func TestReplacePerson(t *testing.T) {
	s := newTestServer(t)
	created := s.seedPerson(t, "Arto Hellas", "040-123456")
	before := s.count(t)

	rec := s.do(t, http.MethodPut, "/api/persons/"+created.ID,
		`{"name":"Arto Vihavainen","number":"045-999"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Arto Vihavainen", updated.Name)
	assert.Equal(t, model.Number("045-999"), updated.Number)

	assert.Equal(t, before, s.count(t))

	listRec := s.do(t, http.MethodGet, "/api/persons", "", "")
	persons := decodePersons(t, listRec)
	require.Len(t, persons, 1)
	assert.Equal(t, "Arto Vihavainen", persons[0].Name)
}

func TestReplacePersonErrors(t *testing.T) {
	s := newTestServer(t)
	created := s.seedPerson(t, "Arto Hellas", "040-123456")

	tt := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"malformed id", "nope", `{"name":"A","number":1}`, http.StatusBadRequest},
		{"absent id", absentID, `{"name":"A","number":1}`, http.StatusNotFound},
		{"missing fields", created.ID, `{"name":"A"}`, http.StatusBadRequest},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, "/api/persons/"+test.id, test.body, "")
			assert.Equal(t, test.wantStatus, rec.Code)
		})
	}
}

func TestDeletePerson(t *testing.T) {
	s := newTestServer(t)
	created := s.seedPerson(t, "Arto Hellas", "040-123456")
	before := s.count(t)

	rec := s.do(t, http.MethodDelete, "/api/persons/"+created.ID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, before-1, s.count(t))
}

func TestDeletePersonErrors(t *testing.T) {
	s := newTestServer(t)

	tt := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"malformed id", "12345", http.StatusBadRequest},
		{"well-formed but absent", absentID, http.StatusNotFound},
	}
	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			rec := s.do(t, http.MethodDelete, "/api/persons/"+test.id, "", "")
			assert.Equal(t, test.wantStatus, rec.Code)
		})
	}
}
