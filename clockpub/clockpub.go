// Package clockpub publishes RTC readings as JSON over MQTT.
package clockpub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ajanata/tinygo-drivers/ds1302"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("clockpub: timed out waiting for broker")

const (
	DefaultTopic   = "board/rtc"
	DefaultTimeout = 5 * time.Second
)

// Source is read once per publish, normally a *ds1302.Device.
type Source interface {
	ReadCalendarAndClock() (ds1302.Calendar, ds1302.Clock, error)
}

// Client is the part of mqtt.Client used for publishing.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Reading is the published payload.
type Reading struct {
	Calendar ds1302.Calendar `json:"calendar"`
	Clock    ds1302.Clock    `json:"clock"`
	Time     time.Time       `json:"time"`
}

type Config struct {
	Topic   string
	QoS     byte
	Retain  bool
	Timeout time.Duration
}

type Publisher struct {
	client Client
	src    Source
	cfg    Config
}

// New returns a publisher. Zero Config fields take the package defaults.
func New(client Client, src Source, cfg Config) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Publisher{
		client: client,
		src:    src,
		cfg:    cfg,
	}
}

// Publish reads the clock and sends one reading. Nothing is sent if the read fails.
func (p *Publisher) Publish() (Reading, error) {
	cal, clk, err := p.src.ReadCalendarAndClock()
	if err != nil {
		return Reading{}, err
	}
	r := Reading{
		Calendar: cal,
		Clock:    clk,
		Time:     cal.Time(clk),
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return Reading{}, err
	}

	tok := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !tok.WaitTimeout(p.cfg.Timeout) {
		return Reading{}, ErrTimeout
	}
	if err := tok.Error(); err != nil {
		return Reading{}, fmt.Errorf("clockpub: publish to %s: %w", p.cfg.Topic, err)
	}
	return r, nil
}

// Dial connects to broker, e.g. "tcp://192.168.1.10:1883".
func Dial(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout)
	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, ErrTimeout
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("clockpub: connect to %s: %w", broker, err)
	}
	return c, nil
}
