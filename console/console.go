// Package console is a line-oriented command shell for the board, meant to run over a serial port. Lines are split
// with shell quoting rules, so arguments may be quoted.
//
//	> set 2024-03-15T13:45:00Z
//	> time
//	2024-03-15 13:45:02 Fri
//	> rotate 90 ccw
//
// A Console owns the devices it is given; run it from a single goroutine.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/ajanata/tinygo-drivers/ds1302"
	"github.com/ajanata/tinygo-drivers/stepper"
)

var (
	ErrUnknownCommand = errors.New("console: unknown command")
	ErrUsage          = errors.New("console: usage")
	ErrNoDevice       = errors.New("console: device not attached")
)

// Prompt is written before each line is read by Run.
const Prompt = "> "

// RTC is the clock the console drives, normally a *ds1302.Device.
type RTC interface {
	Init() error
	Halted() (bool, error)
	Now() (time.Time, error)
	ReadClock() (ds1302.Clock, error)
	Set(t time.Time) error
}

// Motor is the stepper the console drives, normally a *stepper.Device.
type Motor interface {
	SetSpeed(s stepper.Speed)
	StepCW(n uint32)
	StepCCW(n uint32)
	RotateCW(angle uint16)
	RotateCCW(angle uint16)
	Rest()
}

type command struct {
	usage string
	run   func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {"help", (*Console).help},
		"init":   {"init", (*Console).initRTC},
		"time":   {"time", (*Console).now},
		"clock":  {"clock", (*Console).clock},
		"halted": {"halted", (*Console).halted},
		"set":    {"set <RFC3339 time>", (*Console).set},
		"step":   {"step <n> [cw|ccw]", (*Console).step},
		"rotate": {"rotate <degrees> [cw|ccw]", (*Console).rotate},
		"speed":  {"speed slow|mid|fast", (*Console).speed},
		"rest":   {"rest", (*Console).rest},
	}
}

type Console struct {
	rtc   RTC
	motor Motor
	out   io.Writer
}

// New returns a console writing replies to out. Either device may be nil; commands for it then fail with
// ErrNoDevice.
func New(rtc RTC, motor Motor, out io.Writer) *Console {
	return &Console{
		rtc:   rtc,
		motor: motor,
		out:   out,
	}
}

// Run executes lines from r until it is exhausted. Command errors are printed and do not stop the loop.
func (c *Console) Run(r io.Reader) error {
	s := bufio.NewScanner(r)
	fmt.Fprint(c.out, Prompt)
	for s.Scan() {
		if err := c.Exec(s.Text()); err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
		fmt.Fprint(c.out, Prompt)
	}
	return s.Err()
}

// Exec runs a single command line. Blank lines and lines starting with # do nothing.
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCommand, args[0])
	}
	return cmd.run(c, args[1:])
}

func (c *Console) help(args []string) error {
	names := []string{"init", "time", "clock", "halted", "set", "step", "rotate", "speed", "rest", "help"}
	for _, n := range names {
		fmt.Fprintln(c.out, " ", commands[n].usage)
	}
	return nil
}

func (c *Console) initRTC(args []string) error {
	if c.rtc == nil {
		return ErrNoDevice
	}
	if err := c.rtc.Init(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *Console) now(args []string) error {
	if c.rtc == nil {
		return ErrNoDevice
	}
	t, err := c.rtc.Now()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, t.Format("2006-01-02 15:04:05 Mon"))
	return nil
}

func (c *Console) clock(args []string) error {
	if c.rtc == nil {
		return ErrNoDevice
	}
	clk, err := c.rtc.ReadClock()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%02d:%02d:%02d\n", clk.Hours, clk.Minutes, clk.Seconds)
	return nil
}

func (c *Console) halted(args []string) error {
	if c.rtc == nil {
		return ErrNoDevice
	}
	h, err := c.rtc.Halted()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, h)
	return nil
}

func (c *Console) set(args []string) error {
	if c.rtc == nil {
		return ErrNoDevice
	}
	if len(args) != 1 {
		return usage("set")
	}
	t, err := time.Parse(time.RFC3339, args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := c.rtc.Set(t); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *Console) step(args []string) error {
	if c.motor == nil {
		return ErrNoDevice
	}
	n, ccw, err := moveArgs("step", args)
	if err != nil {
		return err
	}
	if ccw {
		c.motor.StepCCW(uint32(n))
	} else {
		c.motor.StepCW(uint32(n))
	}
	return nil
}

func (c *Console) rotate(args []string) error {
	if c.motor == nil {
		return ErrNoDevice
	}
	n, ccw, err := moveArgs("rotate", args)
	if err != nil {
		return err
	}
	if n > 0xFFFF {
		return usage("rotate")
	}
	if ccw {
		c.motor.RotateCCW(uint16(n))
	} else {
		c.motor.RotateCW(uint16(n))
	}
	return nil
}

func (c *Console) speed(args []string) error {
	if c.motor == nil {
		return ErrNoDevice
	}
	if len(args) != 1 {
		return usage("speed")
	}
	switch strings.ToLower(args[0]) {
	case "slow":
		c.motor.SetSpeed(stepper.Slow)
	case "mid":
		c.motor.SetSpeed(stepper.Mid)
	case "fast":
		c.motor.SetSpeed(stepper.Fast)
	default:
		return usage("speed")
	}
	return nil
}

func (c *Console) rest(args []string) error {
	if c.motor == nil {
		return ErrNoDevice
	}
	c.motor.Rest()
	return nil
}

// moveArgs parses "<n> [cw|ccw]".
func moveArgs(name string, args []string) (n uint64, ccw bool, err error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, false, usage(name)
	}
	n, err = strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, false, usage(name)
	}
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "cw":
		case "ccw":
			ccw = true
		default:
			return 0, false, usage(name)
		}
	}
	return n, ccw, nil
}

func usage(name string) error {
	return fmt.Errorf("%w: %s", ErrUsage, commands[name].usage)
}
