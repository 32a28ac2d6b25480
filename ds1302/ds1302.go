// Package ds1302 implements a driver for the DS1302 trickle-charge timekeeping chip, providing initialization and
// burst read-write of the calendar and clock registers. Alarms, the trickle charger, 12-hour mode and the 31 bytes of
// battery-backed RAM are not implemented.
//
// The DS1302 talks a 3-wire, half-duplex serial protocol that shifts each byte least significant bit first. Most SPI
// peripherals shift most significant bit first, so every command and data byte is bit-reversed on its way to and from
// the bus.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS1302.pdf
package ds1302

import (
	"errors"
	"time"
)

// ErrYearOutOfRange is returned by Set for times the two-digit year register cannot hold.
var ErrYearOutOfRange = errors.New("ds1302: year out of range 2000-2099")

// Bus is a half-duplex byte transport with the chip-enable line handled by the implementation.
type Bus interface {
	// Write sends w in a single transaction.
	Write(w []byte) error
	// Transfer sends all of w and then reads len(r) bytes into r in a single transaction.
	Transfer(w, r []byte) error
}

// Calendar holds the date registers.
type Calendar struct {
	Year  uint16 `json:"year"`  // 2000-2099
	Month uint8  `json:"month"` // 1-12
	Date  uint8  `json:"date"`  // day of month, 1-31
	Day   uint8  `json:"day"`   // day of week, 1-7
}

// Clock holds the time registers in 24-hour form.
type Clock struct {
	Hours   uint8 `json:"hours"`
	Minutes uint8 `json:"minutes"`
	Seconds uint8 `json:"seconds"`
}

type logger interface {
	Println(string) error
}

// Device owns the bus of a single DS1302. It does no locking; callers sharing a Device must serialize access.
type Device struct {
	bus Bus
	// Log, if set, receives a line when Init has to restart a halted oscillator.
	Log logger
}

// New creates a driver on the given bus. The chip is not touched until Init is called.
func New(bus Bus) *Device {
	return &Device{
		bus: bus,
	}
}

// Init prepares the chip for use and must be called once before anything else. It clears the write-protect flag and,
// if the clock-halt flag is set, writes zero seconds, which restarts the oscillator and resets the seconds counter.
// Errors from the bus are returned as is and nothing is retried.
func (d *Device) Init() error {
	err := d.bus.Write([]byte{WriteProtect.Address(false), 0})
	if err != nil {
		return err
	}

	sec, err := d.getSeconds()
	if err != nil {
		return err
	}
	if halted(sec) {
		d.log("ds1302: clock halted, resetting seconds")
		return d.setSeconds(0)
	}
	return nil
}

// Halted reports whether the oscillator is stopped. It does not change the flag.
func (d *Device) Halted() (bool, error) {
	sec, err := d.getSeconds()
	if err != nil {
		return false, err
	}
	return halted(sec), nil
}

// getSeconds returns the seconds register exactly as received, halt flag included.
func (d *Device) getSeconds() (byte, error) {
	buf := [1]byte{}
	err := d.bus.Transfer([]byte{Seconds.Address(true)}, buf[:])
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *Device) setSeconds(seconds uint8) error {
	return d.bus.Write([]byte{Seconds.Address(false), encode(seconds)})
}

// ReadClock reads the seconds, minutes and hours registers in one burst.
//
// Unlike ReadCalendarAndClock the bytes are BCD-decoded as received, without bit reversal.
// TODO: check against hardware whether this burst needs the same reversal as ReadCalendarAndClock.
func (d *Device) ReadClock() (Clock, error) {
	buf := [burstHours + 1]byte{}
	err := d.bus.Transfer([]byte{ClockBurst.Address(true)}, buf[:])
	if err != nil {
		return Clock{}, err
	}

	return Clock{
		Hours:   bcdToDec(buf[burstHours]),
		Minutes: bcdToDec(buf[burstMinutes]),
		Seconds: bcdToDec(buf[burstSeconds]),
	}, nil
}

// ReadCalendarAndClock reads all seven time and date registers in one burst. The trailing write-protect byte is
// read to complete the burst and then discarded.
func (d *Device) ReadCalendarAndClock() (Calendar, Clock, error) {
	buf := [burstLen]byte{}
	err := d.bus.Transfer([]byte{ClockBurst.Address(true)}, buf[:])
	if err != nil {
		return Calendar{}, Clock{}, err
	}

	cal := Calendar{
		Year:  century + uint16(decode(buf[burstYear])),
		Month: decode(buf[burstMonth]),
		Date:  decode(buf[burstDate]),
		Day:   decode(buf[burstDay]),
	}
	clk := Clock{
		Hours:   decode(buf[burstHours]),
		Minutes: decode(buf[burstMinutes]),
		Seconds: decode(buf[burstSeconds]),
	}
	return cal, clk, nil
}

// SetCalendarAndClock writes all seven time and date registers in one burst. Values are not range checked. Writing
// seconds also clears the clock-halt flag.
//
// If the transfer fails part way the chip registers are left in an unknown state.
func (d *Device) SetCalendarAndClock(cal Calendar, clk Clock) error {
	buf := [1 + burstLen]byte{
		ClockBurst.Address(false),
		encode(clk.Seconds),
		encode(clk.Minutes),
		encode(clk.Hours),
		encode(cal.Date),
		encode(cal.Month),
		encode(cal.Day),
		encode(uint8(cal.Year - century)),
		// write protect; the chip only commits the year once this byte arrives
		0,
	}
	return d.bus.Write(buf[:])
}

// Now reads the chip and returns the time in UTC.
func (d *Device) Now() (time.Time, error) {
	cal, clk, err := d.ReadCalendarAndClock()
	if err != nil {
		return time.Time{}, err
	}
	return cal.Time(clk), nil
}

// Set writes t, converted to UTC, to the chip.
func (d *Device) Set(t time.Time) error {
	t = t.UTC()
	if t.Year() < century || t.Year() >= century+100 {
		return ErrYearOutOfRange
	}
	return d.SetCalendarAndClock(FromTime(t))
}

// FromTime splits t into register values. Sunday is day 1.
func FromTime(t time.Time) (Calendar, Clock) {
	cal := Calendar{
		Year:  uint16(t.Year()),
		Month: uint8(t.Month()),
		Date:  uint8(t.Day()),
		Day:   uint8(t.Weekday()) + 1,
	}
	clk := Clock{
		Hours:   uint8(t.Hour()),
		Minutes: uint8(t.Minute()),
		Seconds: uint8(t.Second()),
	}
	return cal, clk
}

// Time combines the calendar with clk into a UTC time. The day of week is ignored.
func (c Calendar) Time(clk Clock) time.Time {
	return time.Date(int(c.Year), time.Month(c.Month), int(c.Date),
		int(clk.Hours), int(clk.Minutes), int(clk.Seconds), 0, time.UTC)
}

func (d *Device) log(msg string) {
	if d.Log != nil {
		_ = d.Log.Println(msg)
	}
}

// halted reports whether the clock-halt flag is set in a seconds byte as received from the bus.
func halted(raw byte) bool {
	return reverse(raw)&HaltFlag != 0
}
