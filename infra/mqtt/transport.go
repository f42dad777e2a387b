// Package mqtt implements the offer transport over an MQTT broker: offers go
// out on a per-driver topic and decisions come back on a shared topic,
// correlated by offer ID.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/tambula/dispatch/core/dispatch"
	"github.com/tambula/dispatch/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT transport.
type Config struct {
	Broker        string `json:"broker"`
	ClientID      string `json:"client_id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	OfferPrefix   string `json:"offer_prefix"`
	DecisionTopic string `json:"decision_topic"`
	QoS           byte   `json:"qos"`
	MaxRetries    int    `json:"max_retries"`
	BackoffMS     int    `json:"backoff_ms"`
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.OfferPrefix == "" {
		c.OfferPrefix = "dispatch/offer"
	}
	if c.DecisionTopic == "" {
		c.DecisionTopic = "dispatch/decision"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

type decision struct {
	OfferID  string `json:"offer_id"`
	DriverID string `json:"driver_id"`
	Accepted bool   `json:"accepted"`
}

type offerMessage struct {
	OfferID   string                `json:"offer_id"`
	DriverID  string                `json:"driver_id"`
	Summary   dispatch.OfferSummary `json:"summary"`
	Timestamp int64                 `json:"timestamp"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoTransport implements dispatch.OfferTransport using Eclipse Paho.
type PahoTransport struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	mu      sync.Mutex
	pending map[string]chan bool
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoTransport connects to the broker and subscribes to the decision
// topic.
func NewPahoTransport(cfg Config) (*PahoTransport, error) {
	cfg.SetDefaults()
	log := logger.New("mqtt_transport")
	t := &PahoTransport{cfg: cfg, log: log, pending: make(map[string]chan bool)}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.DecisionTopic, cfg.QoS, t.onDecision); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	t.cli = c
	return t, nil
}

func (t *PahoTransport) onDecision(_ paho.Client, msg paho.Message) {
	var d decision
	if err := json.Unmarshal(msg.Payload(), &d); err != nil {
		t.log.Errorf("failed to decode decision: %v", err)
		return
	}
	t.mu.Lock()
	ch, ok := t.pending[d.OfferID]
	if ok {
		select {
		case ch <- d.Accepted:
		default:
		}
		t.log.Infof("received decision for offer %s: accepted=%v", d.OfferID, d.Accepted)
	}
	t.mu.Unlock()
}

// SendOffer publishes the offer to the driver topic and waits for the
// decision until the context deadline. No response within the deadline maps
// to dispatch.ErrOfferTimeout, which the coordinator treats as a decline.
func (t *PahoTransport) SendOffer(ctx context.Context, driverID string, summary dispatch.OfferSummary) (bool, error) {
	offerID := uuid.NewString()
	payload, err := json.Marshal(offerMessage{
		OfferID:   offerID,
		DriverID:  driverID,
		Summary:   summary,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return false, err
	}

	ch := make(chan bool, 1)
	t.mu.Lock()
	t.pending[offerID] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, offerID)
		t.mu.Unlock()
	}()

	topic := fmt.Sprintf("%s/%s", t.cfg.OfferPrefix, driverID)
	backoff := time.Duration(t.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		token := t.cli.Publish(topic, t.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			break
		}
		t.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	if publishErr != nil {
		return false, publishErr
	}
	t.log.Infof("sent offer %s to %s", offerID, topic)

	select {
	case accepted := <-ch:
		return accepted, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return false, dispatch.ErrOfferTimeout
		}
		return false, ctx.Err()
	}
}

// Disconnect gracefully closes the MQTT connection.
func (t *PahoTransport) Disconnect() {
	if t.cli != nil && t.cli.IsConnected() {
		t.cli.Disconnect(250)
	}
}
