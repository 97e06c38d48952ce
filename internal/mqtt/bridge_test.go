package mqtt

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/switchd/internal/eventloop"
	"github.com/larsks/switchd/internal/switchdrivers"
	"github.com/larsks/switchd/internal/switchentity"
)

type message struct {
	topic    string
	payload  string
	retained bool
}

type fakeTransport struct {
	mu        sync.Mutex
	published []message
	topics    []string
	handler   func(topic string, payload []byte)
}

func (f *fakeTransport) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message{topic: topic, payload: payload.(string), retained: retained})
	return nil
}

func (f *fakeTransport) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.handler = handler
	return nil
}

func (f *fakeTransport) messages() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.published...)
}

func startLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop := eventloop.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx) //nolint:errcheck
	t.Cleanup(func() {
		cancel()
		<-loop.Stopped()
	})
	return loop
}

func newBridgeWithSwitch(t *testing.T) (*Bridge, *switchentity.Switch, *fakeTransport) {
	t.Helper()

	loop := startLoop(t)
	bridge := NewBridge(loop, "switchd/")
	sw := switchdrivers.NewVirtualSwitch("Garden Pump", nil, false).Switch()
	bridge.Attach(sw)

	transport := &fakeTransport{}
	return bridge, sw, transport
}

func TestBridge_Topics(t *testing.T) {
	bridge := NewBridge(nil, "home/switchd")
	assert.Equal(t, "home/switchd/status", bridge.StatusTopic())
	assert.Equal(t, "home/switchd/switch/pump/state", bridge.StateTopic("pump"))
	assert.Equal(t, "home/switchd/switch/pump/command", bridge.CommandTopic("pump"))

	topic, payload := bridge.WillConfig()
	assert.Equal(t, "home/switchd/status", topic)
	assert.Equal(t, "offline", payload)
}

func TestBridge_HandleConnect(t *testing.T) {
	bridge, sw, transport := newBridgeWithSwitch(t)

	// State published before connecting is not lost.
	sw.TurnOn()

	bridge.HandleConnect(transport)

	assert.Equal(t, []string{"switchd/switch/+/command"}, transport.topics)
	assert.Equal(t, []message{
		{topic: "switchd/status", payload: "online", retained: true},
		{topic: "switchd/switch/garden_pump/state", payload: "ON", retained: true},
	}, transport.messages())
}

func TestBridge_PublishesStateChanges(t *testing.T) {
	bridge, sw, transport := newBridgeWithSwitch(t)
	bridge.SetTransport(transport)

	sw.TurnOn()
	sw.TurnOn()
	sw.TurnOff()

	assert.Equal(t, []message{
		{topic: "switchd/switch/garden_pump/state", payload: "ON", retained: true},
		{topic: "switchd/switch/garden_pump/state", payload: "OFF", retained: true},
	}, transport.messages())
}

func TestBridge_HandleCommand(t *testing.T) {
	bridge, sw, transport := newBridgeWithSwitch(t)
	bridge.HandleConnect(transport)
	require.NotNil(t, transport.handler)

	transport.handler("switchd/switch/garden_pump/command", []byte("on"))
	assert.True(t, sw.State())

	require.NoError(t, bridge.HandleCommand("switchd/switch/garden_pump/command", "TOGGLE"))
	assert.False(t, sw.State())

	require.NoError(t, bridge.HandleCommand("switchd/switch/garden_pump/command", "ON"))
	assert.True(t, sw.State())
}

func TestBridge_HandleCommand_Errors(t *testing.T) {
	bridge, _, _ := newBridgeWithSwitch(t)

	tests := []struct {
		topic   string
		payload string
		wantErr error
	}{
		{"switchd/switch/nope/command", "ON", ErrUnknownSwitch},
		{"other/switch/garden_pump/command", "ON", ErrUnknownSwitch},
		{"switchd/switch/garden_pump/state", "ON", ErrUnknownSwitch},
		{"switchd/switch/a/b/command", "ON", ErrUnknownSwitch},
		{"switchd/switch/garden_pump/command", "BLINK", ErrInvalidCommand},
	}

	for _, tt := range tests {
		err := bridge.HandleCommand(tt.topic, tt.payload)
		assert.ErrorIs(t, err, tt.wantErr, tt.topic)
	}
}
