package importing

import (
	"context"
	"errors"
	"testing"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExistingExactMatch(t *testing.T) {
	backend := newFakeBackend()
	want, err := backend.Create(context.Background(), issue.CreateRequest{Type: issue.TypeEpic, Summary: "Login"})
	require.NoError(t, err)

	r := &DuplicateResolver{Backend: backend}
	got, err := r.FindExisting(context.Background(), issue.TypeEpic, "Login", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Key, got.Key)
}

func TestFindExistingAbsent(t *testing.T) {
	r := &DuplicateResolver{Backend: newFakeBackend()}
	got, err := r.FindExisting(context.Background(), issue.TypeEpic, "Login", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindExistingIsCaseSensitive(t *testing.T) {
	backend := newFakeBackend()
	_, err := backend.Create(context.Background(), issue.CreateRequest{Type: issue.TypeEpic, Summary: "login"})
	require.NoError(t, err)

	r := &DuplicateResolver{Backend: backend}
	got, err := r.FindExisting(context.Background(), issue.TypeEpic, "Login", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindExistingIgnoresOtherTypes(t *testing.T) {
	backend := newFakeBackend()
	_, err := backend.Create(context.Background(), issue.CreateRequest{Type: issue.TypeStory, Summary: "Login"})
	require.NoError(t, err)

	r := &DuplicateResolver{Backend: backend}
	got, err := r.FindExisting(context.Background(), issue.TypeEpic, "Login", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindExistingPropagatesBackendError(t *testing.T) {
	backend := newFakeBackend()
	backend.failSearch["Login"] = errors.New("boom")

	r := &DuplicateResolver{Backend: backend}
	_, err := r.FindExisting(context.Background(), issue.TypeEpic, "Login", "")
	assert.Error(t, err)
}
