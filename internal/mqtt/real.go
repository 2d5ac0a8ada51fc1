package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// PahoClient adapts the paho client to the Client interface.
type PahoClient struct {
	client paho.Client
}

var _ Client = (*PahoClient)(nil)

// NewPahoClient connects to the given broker with auto-reconnect
// enabled, so a broker outage buffers records instead of failing them.
func NewPahoClient(broker, clientID string) (*PahoClient, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return &PahoClient{client: client}, nil
}

func (c *PahoClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *PahoClient) Close() {
	c.client.Disconnect(1000) // milliseconds
}
