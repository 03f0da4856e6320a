package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	c, err := Static("tok").Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential("tok"), c)

	_, err = Static("").Credential(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFromContext(t *testing.T) {
	_, err := FromContext{}.Credential(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)

	ctx := WithCredential(context.Background(), "tok")
	c, err := FromContext{}.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential("tok"), c)
}

func TestHasher(t *testing.T) {
	h := NewHasher([]byte("pepper"))

	a := h.Hash("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, h.Hash("token-a"))
	assert.NotEqual(t, a, h.Hash("token-b"))
	assert.NotEqual(t, a, NewHasher([]byte("other")).Hash("token-a"))

	assert.True(t, SameOwner(a, h.Hash("token-a")))
	assert.False(t, SameOwner(a, h.Hash("token-b")))
	assert.False(t, SameOwner(a, "not-hex"))
}
