// Package daemon assembles switchd: the preference store, the switches, the
// event loop they run on, and the HTTP and MQTT surfaces.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/api"
	"github.com/larsks/switchd/internal/eventloop"
	"github.com/larsks/switchd/internal/httpserver"
	"github.com/larsks/switchd/internal/mqtt"
	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchdrivers"
	"github.com/larsks/switchd/internal/switchentity"
)

const (
	setupTimeout      = 30 * time.Second
	mqttQuiesceMillis = 250
)

// Daemon owns every long-lived switchd resource.
type Daemon struct {
	cfg        *Config
	loop       *eventloop.Loop
	store      preferences.Store
	components []switchdrivers.Component
	api        *api.Server
	bridge     *mqtt.Bridge
	mqttClient *mqtt.Client
}

// New opens the preference store and creates the configured switches. No
// switch is driven until Run.
func New(cfg *Config) (*Daemon, error) {
	return newDaemon(cfg, switchdrivers.DefaultRegistry())
}

func newDaemon(cfg *Config, registry *switchdrivers.Registry) (*Daemon, error) {
	if err := cfg.validate(registry); err != nil {
		return nil, err
	}

	store, err := preferences.Open(cfg.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}

	d := &Daemon{
		cfg:   cfg,
		loop:  eventloop.New(eventloop.DefaultQueueSize),
		store: store,
	}

	switches := make([]*switchentity.Switch, 0, len(cfg.Switches))
	for _, sc := range cfg.Switches {
		component, err := registry.Create(sc.Driver, sc.Name, store, sc.Options)
		if err != nil {
			d.closeComponents() //nolint:errcheck
			return nil, fmt.Errorf("failed to create switch %q: %w", sc.Name, err)
		}

		sw := component.Switch()
		sw.SetInverted(sc.Inverted)
		sw.SetRestoreMode(sc.RestoreMode)
		if sc.DeviceClass != "" {
			sw.SetDeviceClass(sc.DeviceClass)
		}

		log.Debug().
			Str("switch", sw.Name()).
			Str("driver", component.String()).
			Bool("inverted", sc.Inverted).
			Stringer("restore_mode", sc.RestoreMode).
			Msg("created switch")

		d.components = append(d.components, component)
		switches = append(switches, sw)
	}

	d.api, err = api.NewServer(d.loop, switches, cfg.API)
	if err != nil {
		d.closeComponents() //nolint:errcheck
		return nil, err
	}

	if cfg.MQTT.Server != "" {
		d.bridge = mqtt.NewBridge(d.loop, cfg.MQTT.Prefix)
		for _, sw := range switches {
			d.bridge.Attach(sw)
		}
	}

	return d, nil
}

// Run serves on the configured listen address until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", d.cfg.ListenAddress, d.cfg.ListenPort)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		d.closeComponents() //nolint:errcheck
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return d.Serve(ctx, l)
}

// Serve starts the event loop, sets up every switch, connects to MQTT if
// configured and serves the API on l. It returns after ctx is cancelled and
// everything has been shut down.
func (d *Daemon) Serve(ctx context.Context, l net.Listener) (err error) {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go d.loop.Run(loopCtx) //nolint:errcheck

	defer func() {
		stopLoop()
		<-d.loop.Stopped()
		if closeErr := d.closeComponents(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to release resources")
			err = errors.Join(err, closeErr)
		}
	}()

	if err = d.setup(); err != nil {
		l.Close() //nolint:errcheck
		return err
	}

	// Switches are in their boot state; a signal that arrived during setup
	// is a clean shutdown.
	if ctx.Err() != nil {
		l.Close() //nolint:errcheck
		return nil
	}

	if err = d.connectMQTT(); err != nil {
		l.Close() //nolint:errcheck
		return err
	}
	defer d.disconnectMQTT()

	log.Info().Strs("switches", d.api.SwitchNames()).Msg("switchd started")
	return httpserver.Serve(ctx, l, d.api)
}

// setup runs Setup for every component on the event loop. It is not tied to
// the serve context so that every switch reaches its boot state.
func (d *Daemon) setup() error {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	ec := NewErrorCollector()
	err := d.loop.Do(ctx, func() {
		for _, component := range d.components {
			if err := component.Setup(); err != nil {
				ec.Add(component.String(), err)
				continue
			}
			sw := component.Switch()
			log.Info().Str("switch", sw.Name()).Bool("state", sw.State()).Msg("switch ready")
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	if ec.HasErrors() {
		log.Error().Int("failed", ec.Count()).Int("switches", len(d.components)).Msg("switch setup failed")
	}
	return ec.Result(ErrSetupFailed)
}

func (d *Daemon) connectMQTT() error {
	if d.bridge == nil {
		return nil
	}

	willTopic, willPayload := d.bridge.WillConfig()
	client, err := mqtt.NewClient(mqtt.Config{
		ServerURL:   d.cfg.MQTT.Server,
		ClientID:    d.cfg.MQTT.ClientID,
		Username:    d.cfg.MQTT.Username,
		Password:    d.cfg.MQTT.Password,
		WillTopic:   willTopic,
		WillPayload: willPayload,
		OnConnect: func(c *mqtt.Client) {
			d.bridge.HandleConnect(c)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create MQTT client: %w", err)
	}

	d.mqttClient = client
	return nil
}

func (d *Daemon) disconnectMQTT() {
	if d.mqttClient == nil {
		return
	}

	// Mark the device offline explicitly; the will only fires on unclean
	// disconnects.
	willTopic, willPayload := d.bridge.WillConfig()
	if err := d.mqttClient.Publish(willTopic, 0, true, willPayload); err != nil {
		log.Debug().Err(err).Msg("failed to publish offline status")
	}
	d.bridge.SetTransport(nil)
	d.mqttClient.Disconnect(mqttQuiesceMillis)
}

// closeComponents closes every switch and the preference store.
func (d *Daemon) closeComponents() error {
	ec := NewErrorCollector()
	for _, component := range d.components {
		ec.Add(component.String(), component.Close())
	}
	d.components = nil

	if d.store != nil {
		ec.Add("preferences", d.store.Close())
		d.store = nil
	}

	return ec.Result(ErrShutdown)
}
