package switchdrivers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchentity"
)

const defaultTasmotaTimeout = 5 // seconds

// TasmotaConfig represents tasmota driver options
type TasmotaConfig struct {
	Address string `mapstructure:"address"`
	Timeout int    `mapstructure:"timeout"` // in seconds
}

// TasmotaResponse represents the JSON response from Tasmota devices
type TasmotaResponse struct {
	Power string `json:"POWER"`
}

// TasmotaSwitch controls the relay of a Tasmota device over HTTP. The
// published state is whatever the device reports after each command.
type TasmotaSwitch struct {
	sw      *switchentity.Switch
	address string
	client  *http.Client
}

// NewTasmotaSwitch creates a new Tasmota switch
func NewTasmotaSwitch(name string, store preferences.Store, address string, timeout time.Duration) *TasmotaSwitch {
	// Ensure address has http:// prefix
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	ts := &TasmotaSwitch{
		address: strings.TrimSuffix(address, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
	ts.sw = switchentity.New(name, ts, store)
	return ts
}

// WriteState sends Power ON or Power OFF and publishes the reported state.
func (ts *TasmotaSwitch) WriteState(state bool) {
	command := "Power OFF"
	if state {
		command = "Power ON"
	}

	resp, err := ts.sendCommand(context.Background(), command)
	if err != nil {
		log.Error().Err(err).Str("switch", ts.sw.Name()).Str("address", ts.address).Msg("failed to write tasmota power state")
		return
	}
	ts.sw.PublishState(resp.Power == "ON")
}

// Refresh reads the current relay state from the device and publishes it.
func (ts *TasmotaSwitch) Refresh(ctx context.Context) error {
	resp, err := ts.sendCommand(ctx, "Power")
	if err != nil {
		return err
	}
	ts.sw.PublishState(resp.Power == "ON")
	return nil
}

func (ts *TasmotaSwitch) Switch() *switchentity.Switch {
	return ts.sw
}

// Setup reads the relay state from the device, then drives it to the
// restore-mode state. An unreachable device is not fatal; the switch stays
// without state until a command succeeds.
func (ts *TasmotaSwitch) Setup() error {
	if err := ts.Refresh(context.Background()); err != nil {
		log.Warn().Err(err).Str("switch", ts.sw.Name()).Str("address", ts.address).Msg("failed to read tasmota power state")
	}
	applyInitialState(ts.sw)
	return nil
}

func (ts *TasmotaSwitch) Close() error {
	ts.client.CloseIdleConnections()
	return nil
}

// String returns a string representation of the switch
func (ts *TasmotaSwitch) String() string {
	return fmt.Sprintf("tasmota:%s(%s)", ts.sw.ObjectID(), ts.address)
}

// sendCommand sends a command to the Tasmota device and returns the response
func (ts *TasmotaSwitch) sendCommand(ctx context.Context, command string) (*TasmotaResponse, error) {
	u := fmt.Sprintf("%s/cm?%s", ts.address, url.Values{"cmnd": {command}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTasmotaRequest, err)
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTasmotaRequest, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP status %d", ErrTasmotaRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTasmotaRequest, err)
	}

	var tasmotaResp TasmotaResponse
	if err := json.Unmarshal(body, &tasmotaResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrTasmotaRequest, err)
	}

	return &tasmotaResp, nil
}

// TasmotaFactory implements Factory for Tasmota drivers
type TasmotaFactory struct{}

func (f *TasmotaFactory) parseConfig(options map[string]any) (*TasmotaConfig, error) {
	cfg := &TasmotaConfig{}
	if err := decodeOptions(options, cfg); err != nil {
		return nil, err
	}

	if cfg.Address == "" {
		return nil, ErrMissingAddress
	}

	addr := cfg.Address
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	if _, err := url.Parse(addr); err != nil {
		return nil, fmt.Errorf("%w: invalid address %q: %v", ErrInvalidOptions, cfg.Address, err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTasmotaTimeout
	}
	return cfg, nil
}

// CreateDriver creates a new Tasmota switch
func (f *TasmotaFactory) CreateDriver(name string, store preferences.Store, options map[string]any) (Component, error) {
	cfg, err := f.parseConfig(options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tasmota config: %w", err)
	}
	return NewTasmotaSwitch(name, store, cfg.Address, time.Duration(cfg.Timeout)*time.Second), nil
}

// ValidateConfig validates Tasmota configuration
func (f *TasmotaFactory) ValidateConfig(options map[string]any) error {
	_, err := f.parseConfig(options)
	return err
}

func init() {
	Register("tasmota", &TasmotaFactory{})
}
