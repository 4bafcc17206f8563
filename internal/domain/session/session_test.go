package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwner(t *testing.T) {
	_, err := Owner(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	ctx := With(context.Background(), Session{OwnerID: "  "})
	_, err = Owner(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	ctx = With(context.Background(), Session{OwnerID: "u-1", AccessToken: "tok"})
	owner, err := Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", owner)

	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok", s.AccessToken)
}

func TestRequireOwner(t *testing.T) {
	assert.ErrorIs(t, RequireOwner(""), ErrNoSession)
	assert.NoError(t, RequireOwner("u-1"))
}
