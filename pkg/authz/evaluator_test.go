package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicyStore struct {
	owners map[string]string          // projectID -> ownerID
	admins map[string]bool            // userID -> admin
	grants map[string]map[Module]Level // projectID+"/"+userID -> grants
	err    error
}

func (f *fakePolicyStore) ProjectOwner(_ context.Context, projectID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[projectID]
	if !ok {
		return "", ErrProjectNotFound
	}
	return owner, nil
}

func (f *fakePolicyStore) IsAdmin(_ context.Context, userID string) (bool, error) {
	return f.admins[userID], nil
}

func (f *fakePolicyStore) Grants(_ context.Context, projectID, userID string) (map[Module]Level, error) {
	return f.grants[projectID+"/"+userID], nil
}

func TestEvaluateOwnerHasEverything(t *testing.T) {
	store := &fakePolicyStore{owners: map[string]string{"p1": "alice"}}
	ev := NewEvaluator(store)

	access, err := ev.Evaluate(context.Background(), "alice", "p1")
	require.NoError(t, err)
	assert.True(t, access.IsOwner)
	for _, m := range KnownModules() {
		assert.True(t, access.Can(m, LevelWrite), "owner should write %s", m)
	}
}

func TestEvaluateAdminHasEverything(t *testing.T) {
	store := &fakePolicyStore{
		owners: map[string]string{"p1": "alice"},
		admins: map[string]bool{"root": true},
	}
	ev := NewEvaluator(store)

	access, err := ev.Evaluate(context.Background(), "root", "p1")
	require.NoError(t, err)
	assert.True(t, access.IsAdmin)
	for _, m := range KnownModules() {
		assert.True(t, access.Can(m, LevelWrite))
	}
}

func TestEvaluateReadGrantDoesNotAllowWrite(t *testing.T) {
	store := &fakePolicyStore{
		owners: map[string]string{"p1": "alice"},
		grants: map[string]map[Module]Level{
			"p1/bob": {ModuleBacklog: LevelRead},
		},
	}
	ev := NewEvaluator(store)

	access, err := ev.Evaluate(context.Background(), "bob", "p1")
	require.NoError(t, err)
	assert.True(t, access.Can(ModuleBacklog, LevelRead))
	assert.False(t, access.Can(ModuleBacklog, LevelWrite))
}

func TestEvaluateNoGrantMeansNoAccess(t *testing.T) {
	store := &fakePolicyStore{owners: map[string]string{"p1": "alice"}}
	ev := NewEvaluator(store)

	access, err := ev.Evaluate(context.Background(), "mallory", "p1")
	require.NoError(t, err)
	for _, m := range KnownModules() {
		assert.False(t, access.Can(m, LevelRead), "membership alone must not imply %s", m)
	}
}

func TestEvaluateMissingProject(t *testing.T) {
	ev := NewEvaluator(&fakePolicyStore{owners: map[string]string{}})

	_, err := ev.Evaluate(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestEvaluateStoreFailure(t *testing.T) {
	ev := NewEvaluator(&fakePolicyStore{err: errors.New("connection reset")})

	_, err := ev.Evaluate(context.Background(), "alice", "p1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrProjectNotFound)
}

// The zero value must fail closed: an unresolved Access denies everything,
// including for what would be an owner once resolved.
func TestZeroValueAccessDeniesAll(t *testing.T) {
	var access Access
	for _, m := range KnownModules() {
		assert.False(t, access.Can(m, LevelRead))
		assert.False(t, access.Can(m, LevelWrite))
	}
}

func TestParseModule(t *testing.T) {
	m, err := ParseModule("risk_register")
	require.NoError(t, err)
	assert.Equal(t, ModuleRisks, m)

	_, err = ParseModule("risk-register")
	assert.Error(t, err)
}

func TestLevelSatisfies(t *testing.T) {
	assert.True(t, LevelWrite.Satisfies(LevelRead))
	assert.True(t, LevelWrite.Satisfies(LevelWrite))
	assert.True(t, LevelRead.Satisfies(LevelRead))
	assert.False(t, LevelRead.Satisfies(LevelWrite))
}
