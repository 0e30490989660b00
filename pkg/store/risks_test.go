package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, DialectPostgres), mock
}

func TestCreateRisk_ComputesScore(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO risks")).
		WithArgs(sqlmock.AnyArg(), "proj-1", "Vendor lock-in", "", "technical",
			3, 4, 12, model.RiskStatusOpen, "", nil, "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := &model.Risk{
		ProjectID:  "proj-1",
		Title:      "Vendor lock-in",
		Category:   "technical",
		Likelihood: 3,
		Impact:     4,
		Score:      99, // must be discarded
	}
	err := s.CreateRisk(context.Background(), "user-1", r)
	require.NoError(t, err)

	assert.Equal(t, 12, r.Score)
	assert.Equal(t, model.RiskStatusOpen, r.Status)
	assert.Equal(t, "user-1", r.CreatedBy)
	assert.NotEmpty(t, r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRisk_RecomputesScore(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE risks")).
		WithArgs("Vendor lock-in", "", "technical", 5, 5, 25, model.RiskStatusMitigated,
			"Dual sourcing", nil, sqlmock.AnyArg(), "risk-1", "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := &model.Risk{
		ID:             "risk-1",
		ProjectID:      "proj-1",
		Title:          "Vendor lock-in",
		Category:       "technical",
		Likelihood:     5,
		Impact:         5,
		Score:          1, // stale, must be recomputed
		Status:         model.RiskStatusMitigated,
		MitigationPlan: "Dual sourcing",
	}
	err := s.UpdateRisk(context.Background(), "user-1", r)
	require.NoError(t, err)

	assert.Equal(t, 25, r.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRisk_MissingRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE risks")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := &model.Risk{ID: "gone", ProjectID: "proj-1", Likelihood: 1, Impact: 1}
	err := s.UpdateRisk(context.Background(), "user-1", r)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRisks_OrderedByScore(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "project_id", "title", "description", "category", "likelihood", "impact",
		"risk_score", "status", "mitigation_plan", "owner_id", "created_by", "created_at", "updated_at",
	}).
		AddRow("r1", "proj-1", "Critical", "", "", 5, 5, 25, "open", "", nil, "user-1", now, now).
		AddRow("r2", "proj-1", "Minor", "", "", 1, 2, 2, "open", "", nil, "user-1", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY risk_score DESC")).
		WithArgs("proj-1").
		WillReturnRows(rows)

	risks, err := s.ListRisks(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Len(t, risks, 2)
	assert.Equal(t, 25, risks[0].Score)
	assert.Equal(t, 2, risks[1].Score)
}
