package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{ServerURL: "invalid-url"})
	assert.ErrorIs(t, err, ErrInvalidServerURL)
}

func TestNewClient_WrongScheme(t *testing.T) {
	_, err := NewClient(Config{ServerURL: "http://localhost:1883"})
	assert.ErrorIs(t, err, ErrInvalidServerURL)
	assert.Contains(t, err.Error(), "mqtt:// scheme")
}

func TestClient_NotConnected(t *testing.T) {
	// Port 1 on localhost is not expected to host a broker.
	c, err := NewClient(Config{ServerURL: "mqtt://127.0.0.1:1", ClientID: "test", MaxRetries: 1})
	require.NoError(t, err)
	defer c.Disconnect(0)

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish("a/b", 0, false, "x"), ErrNotConnected)
	assert.ErrorIs(t, c.Subscribe("a/b", 0, func(string, []byte) {}), ErrNotConnected)
}

func TestClient_ZeroValue(t *testing.T) {
	var c Client
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish("a/b", 0, false, "x"), ErrNotConnected)
	c.Disconnect(0)
}
