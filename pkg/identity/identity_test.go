package identity

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	id := &Identity{UserID: "u1", KeyID: "k1"}
	ctx := Set(context.Background(), id)

	got, ok := Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "k1", got.KeyID)
}

func TestGetMissing(t *testing.T) {
	_, ok := Get(context.Background())
	assert.False(t, ok)
}

func TestWithRemoteIP(t *testing.T) {
	id := (&Identity{UserID: "u1"}).WithRemoteIP(net.ParseIP("10.0.0.1"))
	assert.Equal(t, "10.0.0.1", id.RemoteIP.String())
}
