package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/auth"
	"github.com/traction-pm/traction/pkg/store"
)

// newTestServer wires a Server to a sqlmock-backed store and injects the
// given principal the way the auth middleware would.
func newTestServer(t *testing.T, p *auth.Principal) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := NewServer(store.NewWithDB(db, store.DialectPostgres))
	mux := srv.Routes()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			r = r.WithContext(auth.WithPrincipal(r.Context(), p))
		}
		mux.ServeHTTP(w, r)
	})
	return handler, mock
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func expectOwner(mock sqlmock.Sqlmock, projectID, ownerID string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM projects WHERE id = $1")).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
}

func expectNotAdmin(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM user_roles")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
}

func expectGrants(mock sqlmock.Sqlmock, projectID, userID string, rows [][2]string) {
	r := sqlmock.NewRows([]string{"module", "level"})
	for _, g := range rows {
		r.AddRow(g[0], g[1])
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT module, level FROM module_permissions")).
		WithArgs(projectID, userID).
		WillReturnRows(r)
}

func TestCreateMilestone_AsOwner(t *testing.T) {
	owner := &auth.Principal{ID: "user-1", Email: "owner@example.com"}
	h, mock := newTestServer(t, owner)

	expectOwner(mock, "proj-1", "user-1")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO milestones")).
		WithArgs(sqlmock.AnyArg(), "proj-1", "Beta launch", "", "planning",
			sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/roadmap",
		`{"name":"Beta launch","dueDate":"2026-10-01"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMilestone_MissingName(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	expectOwner(mock, "proj-1", "user-1")

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/roadmap",
		`{"dueDate":"2026-10-01"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, CodeMissingFields, env.Code)
}

func TestListBacklog_NoGrantForbidden(t *testing.T) {
	member := &auth.Principal{ID: "user-2"}
	h, mock := newTestServer(t, member)

	expectOwner(mock, "proj-1", "user-1")
	expectNotAdmin(mock, "user-2")
	expectGrants(mock, "proj-1", "user-2", [][2]string{{"tasks", "write"}})

	rec, env := doJSON(t, h, http.MethodGet, "/api/projects/proj-1/backlog", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeForbidden, env.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBacklog_ReadGrantAllows(t *testing.T) {
	member := &auth.Principal{ID: "user-2"}
	h, mock := newTestServer(t, member)

	expectOwner(mock, "proj-1", "user-1")
	expectNotAdmin(mock, "user-2")
	expectGrants(mock, "proj-1", "user-2", [][2]string{{"backlog", "read"}})
	mock.ExpectQuery(regexp.QuoteMeta("FROM backlog_items")).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "title", "description", "status", "priority",
			"story_points", "rank", "created_by", "created_at", "updated_at",
		}))

	rec, env := doJSON(t, h, http.MethodGet, "/api/projects/proj-1/backlog", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestCreateBacklogItem_ReadGrantIsNotEnough(t *testing.T) {
	member := &auth.Principal{ID: "user-2"}
	h, mock := newTestServer(t, member)

	expectOwner(mock, "proj-1", "user-1")
	expectNotAdmin(mock, "user-2")
	expectGrants(mock, "proj-1", "user-2", [][2]string{{"backlog", "read"}})

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/backlog",
		`{"title":"Spike: SSO"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeForbidden, env.Code)
}

func TestGetProject_Missing(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM projects WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	rec, env := doJSON(t, h, http.MethodGet, "/api/projects/ghost/tasks", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeProjectNotFound, env.Code)
}

func TestNoPrincipal_Unauthorized(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/api/projects/proj-1/tasks", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestVoteCard_ToggleTwice(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	cardProjectQuery := regexp.QuoteMeta("SELECT r.project_id")

	// First vote: added, tally 1.
	mock.ExpectQuery(cardProjectQuery).WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("proj-1"))
	expectOwner(mock, "proj-1", "user-1")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM card_votes")).
		WithArgs("card-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO card_votes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT votes FROM retro_cards")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"votes"}).AddRow(1))
	mock.ExpectCommit()

	rec, env := doJSON(t, h, http.MethodPost, "/api/cards/card-1/vote", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Vote added", env.Message)

	// Second vote: removed, tally 0.
	mock.ExpectQuery(cardProjectQuery).WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("proj-1"))
	expectOwner(mock, "proj-1", "user-1")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM card_votes")).
		WithArgs("card-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM card_votes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT votes FROM retro_cards")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"votes"}).AddRow(0))
	mock.ExpectCommit()

	rec, env = doJSON(t, h, http.MethodPost, "/api/cards/card-1/vote", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Vote removed", env.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteCard_MissingCard(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.project_id")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	rec, env := doJSON(t, h, http.MethodPost, "/api/cards/ghost/vote", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeCardNotFound, env.Code)
}

func TestCreateRisk_FactorsOutOfRange(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	expectOwner(mock, "proj-1", "user-1")

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/risks",
		`{"title":"Too big","likelihood":9,"impact":2}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingFields, env.Code)
}

func TestUpsertGrant_RequiresManager(t *testing.T) {
	member := &auth.Principal{ID: "user-2"}
	h, mock := newTestServer(t, member)

	expectOwner(mock, "proj-1", "user-1")
	expectNotAdmin(mock, "user-2")
	expectGrants(mock, "proj-1", "user-2", [][2]string{{"backlog", "write"}})

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/access",
		`{"userId":"user-3","module":"tasks","level":"read"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeAccessDenied, env.Code)
}

func TestUpsertGrant_RejectsUnknownModule(t *testing.T) {
	owner := &auth.Principal{ID: "user-1"}
	h, mock := newTestServer(t, owner)

	expectOwner(mock, "proj-1", "user-1")

	rec, env := doJSON(t, h, http.MethodPost, "/api/projects/proj-1/access",
		`{"userId":"user-3","module":"time_machine","level":"read"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingFields, env.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}
