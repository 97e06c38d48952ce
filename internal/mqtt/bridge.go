package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/eventloop"
	"github.com/larsks/switchd/internal/switchentity"
)

const (
	payloadOn      = "ON"
	payloadOff     = "OFF"
	payloadOnline  = "online"
	payloadOffline = "offline"

	commandTimeout = 10 * time.Second
)

// Bridge mirrors switch state to MQTT and accepts commands from it.
//
// Topics, relative to the configured prefix:
//
//	<prefix>/status                     online / offline (retained)
//	<prefix>/switch/<object_id>/state   ON / OFF (retained)
//	<prefix>/switch/<object_id>/command ON / OFF / TOGGLE
type Bridge struct {
	loop   *eventloop.Loop
	prefix string

	mu        sync.RWMutex
	transport Transport
	switches  map[string]*switchentity.Switch
}

// NewBridge creates a bridge that runs switch operations on loop.
func NewBridge(loop *eventloop.Loop, prefix string) *Bridge {
	return &Bridge{
		loop:     loop,
		prefix:   strings.TrimSuffix(prefix, "/"),
		switches: make(map[string]*switchentity.Switch),
	}
}

// StatusTopic is where availability is published.
func (b *Bridge) StatusTopic() string {
	return b.prefix + "/status"
}

// StateTopic is where the state of the switch with the given object id is published.
func (b *Bridge) StateTopic(objectID string) string {
	return fmt.Sprintf("%s/switch/%s/state", b.prefix, objectID)
}

// CommandTopic is where commands for the given object id are received.
func (b *Bridge) CommandTopic(objectID string) string {
	return fmt.Sprintf("%s/switch/%s/command", b.prefix, objectID)
}

// WillConfig returns the last-will settings that mark the device offline.
func (b *Bridge) WillConfig() (topic, payload string) {
	return b.StatusTopic(), payloadOffline
}

// SetTransport sets the connection used for publishing.
func (b *Bridge) SetTransport(t Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transport = t
}

// Attach registers sw with the bridge. Its state changes are published from
// then on. Attach must run on the event loop or before it starts.
func (b *Bridge) Attach(sw *switchentity.Switch) {
	objectID := sw.ObjectID()

	b.mu.Lock()
	b.switches[objectID] = sw
	b.mu.Unlock()

	sw.AddOnStateCallback(func(state bool) {
		b.publishState(objectID, state)
	})
}

func (b *Bridge) publishState(objectID string, state bool) {
	b.mu.RLock()
	t := b.transport
	b.mu.RUnlock()

	if t != nil {
		b.publishTo(t, objectID, state)
	}
}

// HandleConnect announces availability, subscribes to command topics and
// publishes the current state of every switch that has one. It is meant to
// be used as the client's OnConnect callback.
func (b *Bridge) HandleConnect(t Transport) {
	b.SetTransport(t)

	if err := t.Publish(b.StatusTopic(), 0, true, payloadOnline); err != nil {
		log.Warn().Err(err).Msg("failed to publish status")
	}

	topic := fmt.Sprintf("%s/switch/+/command", b.prefix)
	if err := t.Subscribe(topic, 0, b.handleMessage); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to subscribe to command topic")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := b.loop.Do(ctx, func() {
		b.mu.RLock()
		defer b.mu.RUnlock()
		for objectID, sw := range b.switches {
			if sw.HasState() {
				b.publishTo(t, objectID, sw.State())
			}
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to publish initial switch states")
	}
}

func (b *Bridge) publishTo(t Transport, objectID string, state bool) {
	payload := payloadOff
	if state {
		payload = payloadOn
	}
	if err := t.Publish(b.StateTopic(objectID), 0, true, payload); err != nil {
		log.Debug().Err(err).Str("object_id", objectID).Msg("failed to publish switch state")
	}
}

func (b *Bridge) handleMessage(topic string, payload []byte) {
	if err := b.HandleCommand(topic, string(payload)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("ignoring MQTT command")
	}
}

// HandleCommand applies the command in payload to the switch addressed by
// topic.
func (b *Bridge) HandleCommand(topic, payload string) error {
	objectID, ok := b.objectIDFromTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrUnknownSwitch, topic)
	}

	b.mu.RLock()
	sw, exists := b.switches[objectID]
	b.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, objectID)
	}

	action, err := switchentity.ParseAction(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	log.Debug().Str("object_id", objectID).Stringer("action", action).Msg("received MQTT command")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	return b.loop.Do(ctx, func() {
		action.Apply(sw)
	})
}

func (b *Bridge) objectIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/switch/")
	if !ok {
		return "", false
	}
	objectID, ok := strings.CutSuffix(rest, "/command")
	if !ok || objectID == "" || strings.Contains(objectID, "/") {
		return "", false
	}
	return objectID, true
}
