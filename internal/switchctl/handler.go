package switchctl

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/larsks/switchd/internal/api"
	"github.com/larsks/switchd/internal/switchentity"
	"github.com/larsks/switchd/internal/version"
)

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler runs switchctl commands against a switchd server.
type Handler struct {
	config     *Config
	httpClient HTTPClient
	stdout     io.Writer
}

// NewHandler creates a handler that talks to the server named in cfg.
func NewHandler(cfg *Config) *Handler {
	return &Handler{
		config:     cfg,
		httpClient: &http.Client{},
		stdout:     os.Stdout,
	}
}

// Execute runs the command named by args[0].
func (h *Handler) Execute(args []string) error {
	if len(args) == 0 {
		h.showHelp()
		return nil
	}

	command, args := args[0], args[1:]

	switch command {
	case "version":
		version.WriteVersion(h.stdout)
		return nil
	case "help":
		h.showHelp()
		return nil
	case "on", "off", "toggle":
		return h.cmdAction(command, args)
	case "status":
		return h.cmdStatus(args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (h *Handler) showHelp() {
	fmt.Fprintf(h.stdout, `switchctl - Command line tool for controlling switchd switches

Usage: switchctl [flags] <command> [arguments]

Commands:
  on <switch>       Turn on a switch
  off <switch>      Turn off a switch
  toggle <switch>   Toggle a switch
  status [switch]   Show one switch, or list all switches
  help              Show this help
  version           Show version information

Switches may be named by object id (garden_pump) or by name ("Garden Pump").
`)
}

func (h *Handler) cmdAction(command string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s command requires exactly one switch argument", command)
	}

	action, err := switchentity.ParseAction(command)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"action": action.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var sw api.SwitchResponse
	if err := h.makeAPIRequest(http.MethodPost, switchPath(args[0]), body, &sw); err != nil {
		return err
	}

	fmt.Fprintf(h.stdout, "%s: %s\n", sw.Name, onOff(sw))
	return nil
}

func (h *Handler) cmdStatus(args []string) error {
	switch len(args) {
	case 0:
		var switches []api.SwitchResponse
		if err := h.makeAPIRequest(http.MethodGet, "/switch", nil, &switches); err != nil {
			return err
		}

		fmt.Fprintf(h.stdout, "Switches (%d total):\n", len(switches))
		for _, sw := range switches {
			fmt.Fprintf(h.stdout, "  %s: %s (%s)\n", sw.ObjectID, onOff(sw), sw.Name)
		}
		return nil
	case 1:
		var sw api.SwitchResponse
		if err := h.makeAPIRequest(http.MethodGet, switchPath(args[0]), nil, &sw); err != nil {
			return err
		}

		fmt.Fprintf(h.stdout, "Switch: %s\n", sw.Name)
		fmt.Fprintf(h.stdout, "Object ID: %s\n", sw.ObjectID)
		fmt.Fprintf(h.stdout, "State: %s\n", onOff(sw))
		fmt.Fprintf(h.stdout, "Inverted: %t\n", sw.Inverted)
		fmt.Fprintf(h.stdout, "Restore mode: %s\n", sw.RestoreMode)
		if sw.DeviceClass != "" {
			fmt.Fprintf(h.stdout, "Device class: %s\n", sw.DeviceClass)
		}
		if sw.AssumedState {
			fmt.Fprintf(h.stdout, "Assumed state: true\n")
		}
		return nil
	default:
		return fmt.Errorf("status command requires zero or one switch argument")
	}
}

func switchPath(name string) string {
	return "/switch/" + url.PathEscape(name)
}

func onOff(sw api.SwitchResponse) string {
	switch {
	case !sw.HasState:
		return "unknown"
	case sw.State:
		return "on"
	default:
		return "off"
	}
}

// makeAPIRequest performs the request and decodes the data field of the
// response envelope into out.
func (h *Handler) makeAPIRequest(method, path string, body []byte, out any) error {
	target := strings.TrimSuffix(h.config.ServerURL, "/") + path

	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("error parsing response: %w", err)
	}

	if envelope.Status != "ok" {
		if envelope.Message != "" {
			return fmt.Errorf("API error: %s", envelope.Message)
		}
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("error parsing switch data: %w", err)
		}
	}
	return nil
}
