// Package config loads the board configuration file.
//
//	wifi:
//	  ssid: litterbox
//	  password: hunter2
//	  mode: station        # or ap
//	mqtt:
//	  broker: tcp://192.168.1.10:1883
//	  topic: board/rtc
//	  qos: 1
//	ntp:
//	  host: time.nist.gov
//	  attempts: 5
//	stepper:
//	  speed: mid           # slow, mid or fast
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ajanata/tinygo-drivers/clockpub"
	"github.com/ajanata/tinygo-drivers/ntpsync"
	"github.com/ajanata/tinygo-drivers/stepper"
)

var ErrInvalid = errors.New("config: invalid")

const (
	ModeStation     = "station"
	ModeAccessPoint = "ap"
)

type Config struct {
	WiFi    WiFi    `yaml:"wifi"`
	MQTT    MQTT    `yaml:"mqtt"`
	NTP     NTP     `yaml:"ntp"`
	Stepper Stepper `yaml:"stepper"`
}

type WiFi struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	Mode     string `yaml:"mode"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

type NTP struct {
	Host     string `yaml:"host"`
	Attempts uint64 `yaml:"attempts"`
}

type Stepper struct {
	Speed string `yaml:"speed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		WiFi:    WiFi{Mode: ModeStation},
		MQTT:    MQTT{ClientID: "ds1302-board", Topic: clockpub.DefaultTopic},
		NTP:     NTP{Host: ntpsync.DefaultHost, Attempts: ntpsync.DefaultAttempts},
		Stepper: Stepper{Speed: "fast"},
	}
}

// Parse reads YAML on top of the defaults and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func (c Config) Validate() error {
	switch c.WiFi.Mode {
	case ModeStation, ModeAccessPoint:
	default:
		return fmt.Errorf("%w: wifi mode %q", ErrInvalid, c.WiFi.Mode)
	}
	if c.WiFi.Mode == ModeAccessPoint && len(c.WiFi.Password) < 8 {
		return fmt.Errorf("%w: access point password needs at least 8 characters", ErrInvalid)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos %d", ErrInvalid, c.MQTT.QoS)
	}
	if _, err := c.Stepper.ParseSpeed(); err != nil {
		return err
	}
	return nil
}

// ParseSpeed maps the speed name to a stepper speed.
func (s Stepper) ParseSpeed() (stepper.Speed, error) {
	switch strings.ToLower(s.Speed) {
	case "slow":
		return stepper.Slow, nil
	case "mid":
		return stepper.Mid, nil
	case "fast", "":
		return stepper.Fast, nil
	}
	return 0, fmt.Errorf("%w: stepper speed %q", ErrInvalid, s.Speed)
}

// Publisher returns the clockpub settings.
func (m MQTT) Publisher() clockpub.Config {
	return clockpub.Config{
		Topic:  m.Topic,
		QoS:    m.QoS,
		Retain: m.Retain,
	}
}

// Sync returns the ntpsync settings.
func (n NTP) Sync() ntpsync.Config {
	return ntpsync.Config{
		Host:     n.Host,
		Attempts: n.Attempts,
	}
}
