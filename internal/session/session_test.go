package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

func TestSessionRoster(t *testing.T) {
	s, err := New("netrunnerX", []string{"netrunnerX", "reliefAdmin", "citizen1"}, []string{"netrunnerX"})
	require.NoError(t, err)
	assert.Equal(t, "netrunnerX", s.Current())
	assert.True(t, s.IsAdmin())

	require.NoError(t, s.Set("citizen1"))
	assert.Equal(t, "citizen1", s.Current())
	assert.False(t, s.IsAdmin())

	err = s.Set("mallory")
	assert.True(t, apierrors.IsValidation(err))
	assert.Equal(t, "citizen1", s.Current(), "rejected switch must keep the previous user")
}

func TestSessionEmptyRosterAcceptsAnyone(t *testing.T) {
	s, err := New("someone", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("other"))
	assert.True(t, apierrors.IsValidation(s.Set("")))
}

func TestNewRejectsUnknownInitialUser(t *testing.T) {
	_, err := New("ghost", []string{"a"}, nil)
	assert.True(t, apierrors.IsValidation(err))
}

func TestCanModify(t *testing.T) {
	admins := []string{"netrunnerX"}
	assert.True(t, CanModify("citizen1", "citizen1", admins))
	assert.True(t, CanModify("netrunnerX", "citizen1", admins))
	assert.False(t, CanModify("reliefAdmin", "citizen1", admins))
	assert.False(t, CanModify("", "", admins))

	s, err := New("reliefAdmin", nil, admins)
	require.NoError(t, err)
	assert.True(t, s.CanModify("reliefAdmin"))
	assert.False(t, s.CanModify("citizen1"))
}
