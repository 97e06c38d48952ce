// Package mqtt connects switchd to an MQTT broker.
package mqtt

import (
	"fmt"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Transport is the subset of the client the bridge needs.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
}

// Client wraps a paho MQTT client
type Client struct {
	client mqtt.Client
}

// Config holds MQTT client configuration
type Config struct {
	ServerURL         string
	ClientID          string
	Username          string
	Password          string
	MaxRetries        int           // Maximum number of connection retries (0 = infinite)
	InitialRetryDelay time.Duration // Initial delay between retries
	MaxRetryDelay     time.Duration // Maximum delay between retries
	WillTopic         string        // Receives WillPayload if the connection drops
	WillPayload       string
	OnConnect         func(*Client) // Callback to execute when connected
}

// NewClient creates a new MQTT client with the given configuration
// The client will attempt to connect asynchronously and retry if the initial connection fails
func NewClient(config Config) (*Client, error) {
	parsedURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerURL, err)
	}

	if parsedURL.Scheme != "mqtt" {
		return nil, fmt.Errorf("%w: must use mqtt:// scheme", ErrInvalidServerURL)
	}

	// Set default retry values if not specified
	initialDelay := config.InitialRetryDelay
	if initialDelay == 0 {
		initialDelay = time.Second
	}
	maxDelay := config.MaxRetryDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.ServerURL)
	opts.SetClientID(config.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(maxDelay)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	if config.WillTopic != "" {
		opts.SetWill(config.WillTopic, config.WillPayload, 0, true)
	}
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", config.ServerURL).Msg("Connected to MQTT broker")

		// Execute the callback if provided
		if config.OnConnect != nil {
			config.OnConnect(&Client{client: client})
		}
	})

	client := mqtt.NewClient(opts)

	// Start async connection with retry logic
	go func() {
		delay := initialDelay
		attempt := 0
		for {
			if token := client.Connect(); token.Wait() && token.Error() != nil {
				attempt++
				if config.MaxRetries > 0 && attempt >= config.MaxRetries {
					log.Error().Err(token.Error()).Int("attempts", attempt).Msg("Failed to connect to MQTT broker, giving up")
					return
				}

				log.Warn().Err(token.Error()).Int("attempt", attempt).Dur("retry_in", delay).Msg("Failed to connect to MQTT broker")
				time.Sleep(delay)

				// Exponential backoff
				delay = delay * 2
				if delay > maxDelay {
					delay = maxDelay
				}
				continue
			}
			// Connection successful
			return
		}
	}()

	return &Client{client: client}, nil
}

// Publish publishes a message to the specified topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if token := c.client.Publish(topic, qos, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %v", ErrPublish, token.Error())
	}

	return nil
}

// Subscribe subscribes to a topic with the given message handler
func (c *Client) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	wrappedHandler := func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	if token := c.client.Subscribe(topic, qos, wrappedHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w %s: %v", ErrSubscribe, topic, token.Error())
	}

	return nil
}

// IsConnected returns true if the client is connected to the MQTT broker
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Disconnect disconnects from the MQTT broker
func (c *Client) Disconnect(quiesce uint) {
	if c.IsConnected() {
		c.client.Disconnect(quiesce)
		log.Info().Msg("Disconnected from MQTT broker")
	}
}
