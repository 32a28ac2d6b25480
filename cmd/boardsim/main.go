// Command boardsim runs the board console on the host against a simulated DS1302 and stepper, for trying out
// commands without hardware.
//
//	boardsim --config board.yaml --start 2024-03-15T13:45:00Z
//	boardsim --ntp --publish
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ajanata/tinygo-drivers/clockpub"
	"github.com/ajanata/tinygo-drivers/config"
	"github.com/ajanata/tinygo-drivers/console"
	"github.com/ajanata/tinygo-drivers/ds1302"
	"github.com/ajanata/tinygo-drivers/ntpsync"
	"github.com/ajanata/tinygo-drivers/stepper"
	"github.com/ajanata/tinygo-drivers/tester"
)

var (
	configPath = flag.StringP("config", "c", "", "board configuration file")
	running    = flag.Bool("running", false, "start with the oscillator running instead of halted")
	start      = flag.String("start", "", "initial chip time, RFC3339")
	publish    = flag.Bool("publish", false, "publish one reading to the configured MQTT broker after init")
	syncNTP    = flag.Bool("ntp", false, "set the simulated clock from the configured NTP server after init")
	traceCoils = flag.Bool("trace-coils", false, "log every stepper coil change")
)

type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Println(msg string) error {
	s.l.Println(msg)
	return nil
}

func main() {
	flag.Parse()
	log.SetPrefix("boardsim: ")

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	chip := tester.NewDS1302()
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			log.Fatalf("--start: %v", err)
		}
		chip.SetTime(t)
	}
	if *running {
		chip.Regs[tester.RegSeconds] &^= ds1302.HaltFlag
	}

	rtc := ds1302.New(chip)
	rtc.Log = stdLogger{log.Default()}
	if err := rtc.Init(); err != nil {
		log.Fatal(err)
	}

	motor := stepper.New(coil("in1"), coil("in2"), coil("in3"), coil("in4"))
	speed, err := cfg.Stepper.ParseSpeed()
	if err != nil {
		log.Fatal(err)
	}
	motor.SetSpeed(speed)

	if *syncNTP {
		t, err := ntpsync.Sync(rtc, cfg.NTP.Sync())
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("clock set from %s: %s", cfg.NTP.Host, t.UTC().Format(time.RFC3339))
	}

	if *publish {
		if err := publishOnce(cfg.MQTT, rtc); err != nil {
			log.Fatal(err)
		}
	}

	con := console.New(rtc, motor, os.Stdout)
	last := time.Now()
	s := bufio.NewScanner(os.Stdin)
	fmt.Print(console.Prompt)
	for s.Scan() {
		now := time.Now()
		chip.Advance(now.Sub(last).Truncate(time.Second))
		last = last.Add(now.Sub(last).Truncate(time.Second))

		if err := con.Exec(s.Text()); err != nil {
			fmt.Println("error:", err)
		}
		fmt.Print(console.Prompt)
	}
	if err := s.Err(); err != nil {
		log.Fatal(err)
	}
}

func coil(name string) *tester.Pin {
	p := &tester.Pin{Name: name}
	if *traceCoils {
		p.OnSet = func(p *tester.Pin) {
			log.Printf("%s=%t", p.Name, p.High)
		}
	}
	return p
}

func publishOnce(cfg config.MQTT, rtc *ds1302.Device) error {
	if cfg.Broker == "" {
		return errors.New("--publish needs mqtt.broker in the config file")
	}
	client, err := clockpub.Dial(cfg.Broker, cfg.ClientID, clockpub.DefaultTimeout)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	r, err := clockpub.New(client, rtc, cfg.Publisher()).Publish()
	if err != nil {
		return err
	}
	log.Printf("published %s to %s", r.Time.Format(time.RFC3339), cfg.Topic)
	return nil
}
