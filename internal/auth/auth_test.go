package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	// 大小写不敏感
	token, err = ExtractBearerToken("bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	for _, header := range []string{"", "abc123", "Bearer ", "Basic dXNlcg=="} {
		_, err := ExtractBearerToken(header)
		assert.Error(t, err, "header=%q", header)
	}
}

func TestUIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUIDFromContext(ctx)
	assert.False(t, ok)

	ctx = WithUID(ctx, "u1")
	uid, ok := GetUIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", uid)
}
