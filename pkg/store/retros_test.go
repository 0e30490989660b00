package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/model"
)

func TestCreateRetro_SeedsDefaultColumns(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retrospectives")).
		WithArgs(sqlmock.AnyArg(), "proj-1", "Sprint 12", "12", "active", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for i := range defaultRetroColumns {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retro_columns")).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), defaultRetroColumns[i], i).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	r := &model.Retrospective{ProjectID: "proj-1", Name: "Sprint 12", Sprint: "12"}
	err := s.CreateRetro(context.Background(), "user-1", r)
	require.NoError(t, err)

	require.Len(t, r.Columns, 3)
	assert.Equal(t, "What went well", r.Columns[0].Title)
	assert.Equal(t, "Action items", r.Columns[2].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_AddsThenRemoves(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	// First toggle: no existing vote, so insert and tally becomes 1.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM card_votes")).
		WithArgs("card-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO card_votes")).
		WithArgs("card-1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards")).
		WithArgs("card-1", "card-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT votes FROM retro_cards")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"votes"}).AddRow(1))
	mock.ExpectCommit()

	votes, added, err := s.ToggleVote(ctx, "user-1", "card-1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, votes)

	// Second toggle: vote exists, so delete and tally drops back to 0.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM card_votes")).
		WithArgs("card-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM card_votes")).
		WithArgs("card-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards")).
		WithArgs("card-1", "card-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT votes FROM retro_cards")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"votes"}).AddRow(0))
	mock.ExpectCommit()

	votes, added, err = s.ToggleVote(ctx, "user-1", "card-1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, votes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote_MissingCardRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM card_votes")).
		WithArgs("gone", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO card_votes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := s.ToggleVote(context.Background(), "user-1", "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveCard_RejectsCrossRetroMove(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.retro_id")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"retro_id"}).AddRow("retro-a"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT retro_id FROM retro_columns")).
		WithArgs("col-other").
		WillReturnRows(sqlmock.NewRows([]string{"retro_id"}).AddRow("retro-b"))
	mock.ExpectRollback()

	err := s.MoveCard(context.Background(), "user-1", "card-1", "col-other", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "across retrospectives")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveCard_SameRetro(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.retro_id")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"retro_id"}).AddRow("retro-a"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT retro_id FROM retro_columns")).
		WithArgs("col-2").
		WillReturnRows(sqlmock.NewRows([]string{"retro_id"}).AddRow("retro-a"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retro_cards SET column_id")).
		WithArgs("col-2", 3, "card-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.MoveCard(context.Background(), "user-1", "card-1", "col-2", 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
