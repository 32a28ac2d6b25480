package ds1302

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/tinygo-drivers/tester"
)

var _ Bus = (*tester.DS1302)(nil)

var errBus = errors.New("bus fault")

func TestBCD(t *testing.T) {
	c := qt.New(t)
	for v := uint8(0); v <= 99; v++ {
		c.Assert(bcdToDec(decToBcd(v)), qt.Equals, v)
	}
	c.Assert(decToBcd(59), qt.Equals, uint8(0x59))
	c.Assert(decToBcd(7), qt.Equals, uint8(0x07))
	c.Assert(bcdToDec(0x23), qt.Equals, uint8(23))
	// invalid digits decode without complaint
	c.Assert(bcdToDec(0x0F), qt.Equals, uint8(15))
}

func TestEncodeDecode(t *testing.T) {
	c := qt.New(t)
	for v := uint8(0); v <= 99; v++ {
		c.Assert(decode(encode(v)), qt.Equals, v)
	}
	// 24 = 0x24 = 0010_0100, reversed 0010_0100
	c.Assert(encode(24), qt.Equals, byte(0x24))
	// 13 = 0x13 = 0001_0011, reversed 1100_1000
	c.Assert(encode(13), qt.Equals, byte(0xC8))
}

func TestAddress(t *testing.T) {
	c := qt.New(t)
	c.Assert(Seconds.Address(true), qt.Equals, reverse(0x80)|reverse(0x01))
	c.Assert(Seconds.Address(true), qt.Equals, byte(0x81))
	c.Assert(Seconds.Address(false), qt.Equals, byte(0x01))
	c.Assert(WriteProtect.Address(false), qt.Equals, byte(0x71))
	c.Assert(ClockBurst.Address(false), qt.Equals, byte(0x7D))
	c.Assert(ClockBurst.Address(true), qt.Equals, byte(0xFD))
	c.Assert(RAM.Address(false), qt.Equals, byte(0x03))
	c.Assert(RAMBurst.Address(true), qt.Equals, byte(0xFF))

	for _, r := range []Register{Seconds, Minutes, Hours, Date, Month, Day, Year, WriteProtect, ClockBurst, RAM, RAMBurst} {
		c.Assert(reverse(r.Address(false)), qt.Equals, byte(r))
		c.Assert(reverse(r.Address(true)), qt.Equals, byte(r)|ReadFlag)
	}
}

func TestInitHalted(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	log := &lineLog{}
	d := New(chip)
	d.Log = log

	c.Assert(d.Init(), qt.IsNil)
	c.Assert(chip.Frames, qt.DeepEquals, []tester.Frame{
		{Out: []byte{0x71, 0x00}},
		{Out: []byte{0x81}, Read: 1},
		{Out: []byte{0x01, 0x00}},
	})
	c.Assert(chip.Protected(), qt.Equals, false)
	c.Assert(chip.Halted(), qt.Equals, false)
	c.Assert(log.lines, qt.HasLen, 1)
}

func TestInitLogError(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)
	d.Log = failLog{}

	c.Assert(d.Init(), qt.IsNil)
	c.Assert(chip.Halted(), qt.Equals, false)
}

func TestInitRunning(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	chip.SetTime(time.Date(2030, 6, 1, 8, 9, 10, 0, time.UTC))
	chip.Regs[tester.RegSeconds] &^= 0x80
	d := New(chip)

	c.Assert(d.Init(), qt.IsNil)
	c.Assert(chip.Frames, qt.DeepEquals, []tester.Frame{
		{Out: []byte{0x71, 0x00}},
		{Out: []byte{0x81}, Read: 1},
	})
	c.Assert(chip.Time().Second(), qt.Equals, 10)
}

func TestInitErrors(t *testing.T) {
	c := qt.New(t)

	chip := tester.NewDS1302()
	chip.WriteErr = errBus
	c.Assert(New(chip).Init(), qt.Equals, errBus)
	c.Assert(chip.Frames, qt.HasLen, 1)
	c.Assert(chip.Protected(), qt.Equals, true)

	chip = tester.NewDS1302()
	chip.ReadErr = errBus
	c.Assert(New(chip).Init(), qt.Equals, errBus)
	c.Assert(chip.Frames, qt.HasLen, 2)
	c.Assert(chip.Halted(), qt.Equals, true)
}

func TestHalted(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)

	h, err := d.Halted()
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, true)

	c.Assert(d.Init(), qt.IsNil)
	h, err = d.Halted()
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, false)

	chip.ReadErr = errBus
	_, err = d.Halted()
	c.Assert(err, qt.Equals, errBus)
}

func TestSetCalendarAndClockFrame(t *testing.T) {
	c := qt.New(t)
	bus := &scriptBus{}
	d := New(bus)

	err := d.SetCalendarAndClock(
		Calendar{Year: 2024, Month: 3, Date: 15, Day: 5},
		Clock{Hours: 13, Minutes: 45, Seconds: 0},
	)
	c.Assert(err, qt.IsNil)
	c.Assert(bus.writes, qt.HasLen, 1)
	frame := bus.writes[0]
	c.Assert(frame, qt.HasLen, 9)
	c.Assert(frame[0], qt.Equals, ClockBurst.Address(false))
	c.Assert(bcdToDec(reverse(frame[7])), qt.Equals, uint8(24))
	c.Assert(frame[8], qt.Equals, byte(0))
	c.Assert(frame, qt.DeepEquals, []byte{
		0x7D,
		0x00, // 00 s
		0xA2, // 45 min
		0xC8, // 13 h
		0xA8, // 15th
		0xC0, // March
		0xA0, // day 5
		0x24, // 24
		0x00, // write protect
	})
}

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)
	c.Assert(d.Init(), qt.IsNil)

	for _, tc := range []struct {
		cal Calendar
		clk Clock
	}{
		{Calendar{Year: 2024, Month: 3, Date: 15, Day: 5}, Clock{Hours: 13, Minutes: 45, Seconds: 0}},
		{Calendar{Year: 2000, Month: 1, Date: 1, Day: 1}, Clock{}},
		{Calendar{Year: 2099, Month: 12, Date: 31, Day: 7}, Clock{Hours: 23, Minutes: 59, Seconds: 59}},
		{Calendar{Year: 2038, Month: 1, Date: 19, Day: 3}, Clock{Hours: 3, Minutes: 14, Seconds: 7}},
	} {
		c.Assert(d.SetCalendarAndClock(tc.cal, tc.clk), qt.IsNil)
		cal, clk, err := d.ReadCalendarAndClock()
		c.Assert(err, qt.IsNil)
		c.Assert(cal, qt.Equals, tc.cal)
		c.Assert(clk, qt.Equals, tc.clk)
	}
	c.Assert(chip.Protected(), qt.Equals, false)
}

func TestWriteProtected(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)

	// without Init the chip ignores the write
	err := d.SetCalendarAndClock(Calendar{Year: 2024, Month: 3, Date: 15, Day: 5}, Clock{Hours: 13})
	c.Assert(err, qt.IsNil)
	cal, _, err := d.ReadCalendarAndClock()
	c.Assert(err, qt.IsNil)
	c.Assert(cal, qt.Equals, Calendar{Year: 2000, Month: 1, Date: 1, Day: 1})
}

func TestShortBurstDropsYear(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)
	c.Assert(d.Init(), qt.IsNil)

	frame := []byte{ClockBurst.Address(false), encode(1), encode(2), encode(3), encode(4), encode(5), encode(6), encode(24)}
	c.Assert(chip.Write(frame), qt.IsNil)
	cal, clk, err := d.ReadCalendarAndClock()
	c.Assert(err, qt.IsNil)
	c.Assert(cal, qt.Equals, Calendar{Year: 2000, Month: 5, Date: 4, Day: 6})
	c.Assert(clk, qt.Equals, Clock{Hours: 3, Minutes: 2, Seconds: 1})
}

func TestReadCalendarAndClockFrame(t *testing.T) {
	c := qt.New(t)
	bus := &scriptBus{resp: []byte{
		encode(30), encode(45), encode(13), encode(15), encode(3), encode(5), encode(24), 0x01,
	}}
	d := New(bus)

	cal, clk, err := d.ReadCalendarAndClock()
	c.Assert(err, qt.IsNil)
	c.Assert(bus.sent, qt.DeepEquals, [][]byte{{0xFD}})
	c.Assert(bus.reads, qt.DeepEquals, []int{8})
	c.Assert(cal, qt.Equals, Calendar{Year: 2024, Month: 3, Date: 15, Day: 5})
	c.Assert(clk, qt.Equals, Clock{Hours: 13, Minutes: 45, Seconds: 30})
}

func TestReadCalendarAndClockError(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	chip.ReadErr = errBus

	cal, clk, err := New(chip).ReadCalendarAndClock()
	c.Assert(err, qt.Equals, errBus)
	c.Assert(cal, qt.Equals, Calendar{})
	c.Assert(clk, qt.Equals, Clock{})
}

func TestReadClock(t *testing.T) {
	c := qt.New(t)
	bus := &scriptBus{resp: []byte{0x30, 0x45, 0x13}}
	d := New(bus)

	clk, err := d.ReadClock()
	c.Assert(err, qt.IsNil)
	c.Assert(bus.sent, qt.DeepEquals, [][]byte{{0xFD}})
	c.Assert(bus.reads, qt.DeepEquals, []int{3})
	c.Assert(clk, qt.Equals, Clock{Hours: 13, Minutes: 45, Seconds: 30})
}

func TestReadClockError(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	c.Assert(New(chip).Init(), qt.IsNil)
	chip.SetTime(time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC))
	chip.ReadErr = errBus

	clk, err := New(chip).ReadClock()
	c.Assert(err, qt.Equals, errBus)
	c.Assert(clk, qt.Equals, Clock{})
}

func TestNowAndSet(t *testing.T) {
	c := qt.New(t)
	chip := tester.NewDS1302()
	d := New(chip)
	c.Assert(d.Init(), qt.IsNil)

	want := time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC)
	c.Assert(d.Set(want.In(time.FixedZone("CET", 3600))), qt.IsNil)
	c.Assert(chip.Time(), qt.Equals, want)
	// 2024-03-15 was a Friday, the sixth day counting from Sunday
	c.Assert(chip.Regs[tester.RegDay], qt.Equals, byte(6))

	got, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, want)

	chip.Advance(90 * time.Second)
	got, err = d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, want.Add(90*time.Second))
}

func TestSetYearOutOfRange(t *testing.T) {
	c := qt.New(t)
	bus := &scriptBus{}
	d := New(bus)

	c.Assert(d.Set(time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)), qt.Equals, ErrYearOutOfRange)
	c.Assert(d.Set(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)), qt.Equals, ErrYearOutOfRange)
	c.Assert(bus.writes, qt.HasLen, 0)
}

func TestFromTime(t *testing.T) {
	c := qt.New(t)
	cal, clk := FromTime(time.Date(2023, 1, 1, 0, 0, 1, 0, time.UTC))
	c.Assert(cal, qt.Equals, Calendar{Year: 2023, Month: 1, Date: 1, Day: 1})
	c.Assert(clk, qt.Equals, Clock{Seconds: 1})
	c.Assert(cal.Time(clk), qt.Equals, time.Date(2023, 1, 1, 0, 0, 1, 0, time.UTC))
}

// scriptBus records writes and answers every transfer with resp.
type scriptBus struct {
	writes [][]byte
	sent   [][]byte
	reads  []int
	resp   []byte
}

func (b *scriptBus) Write(w []byte) error {
	b.writes = append(b.writes, append([]byte(nil), w...))
	return nil
}

func (b *scriptBus) Transfer(w, r []byte) error {
	b.sent = append(b.sent, append([]byte(nil), w...))
	b.reads = append(b.reads, len(r))
	copy(r, b.resp)
	return nil
}

type lineLog struct {
	lines []string
}

func (l *lineLog) Println(s string) error {
	l.lines = append(l.lines, s)
	return nil
}

type failLog struct{}

func (failLog) Println(string) error {
	return errors.New("log full")
}
