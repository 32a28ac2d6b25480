package tester

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDS1302Protect(t *testing.T) {
	c := NewDS1302()
	before := c.Regs

	// single write of minutes = 5 while protected
	if err := c.Write([]byte{0x41, 0xA0}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, c.Regs); diff != "" {
		t.Errorf("protected write changed registers (-want +got):\n%s", diff)
	}

	// clear write protect, then the same write lands
	if err := c.Write([]byte{0x71, 0x00}); err != nil {
		t.Fatal(err)
	}
	if err := c.Write([]byte{0x41, 0xA0}); err != nil {
		t.Fatal(err)
	}
	if c.Regs[RegMinutes] != 0x05 {
		t.Errorf("minutes = %#x, want 0x05", c.Regs[RegMinutes])
	}

	want := []Frame{
		{Out: []byte{0x41, 0xA0}},
		{Out: []byte{0x71, 0x00}},
		{Out: []byte{0x41, 0xA0}},
	}
	if diff := cmp.Diff(want, c.Frames); diff != "" {
		t.Errorf("frames (-want +got):\n%s", diff)
	}
}

func TestDS1302Commands(t *testing.T) {
	c := NewDS1302()
	if err := c.Write([]byte{0x00}); !errors.Is(err, ErrNotCommand) {
		t.Errorf("Write without bit 7: %v", err)
	}
	if err := c.Transfer(nil, make([]byte, 1)); !errors.Is(err, ErrNotCommand) {
		t.Errorf("empty Transfer: %v", err)
	}

	r := make([]byte, 8)
	if err := c.Transfer([]byte{0xFD}, r); err != nil {
		t.Fatal(err)
	}
	// halted seconds 0x80 arrive reversed as 0x01
	if r[RegSeconds] != 0x01 || r[RegWriteProtect] != 0x01 {
		t.Errorf("burst read = % x", r)
	}
}

func TestDS1302Advance(t *testing.T) {
	c := NewDS1302()
	c.SetTime(time.Date(2024, 2, 28, 23, 59, 30, 0, time.UTC))

	c.Advance(time.Hour)
	if !c.Time().Equal(time.Date(2024, 2, 28, 23, 59, 30, 0, time.UTC)) {
		t.Errorf("halted clock moved to %v", c.Time())
	}

	c.Regs[RegSeconds] &^= flagBit
	c.Advance(24*time.Hour + time.Minute)
	if want := time.Date(2024, 2, 29, 0, 0, 30, 0, time.UTC).Add(24 * time.Hour); !c.Time().Equal(want) {
		t.Errorf("Time() = %v, want %v", c.Time(), want)
	}
	if c.Regs[RegDay] != 0x06 {
		t.Errorf("day = %d, want 6 (Friday)", c.Regs[RegDay])
	}
}

func TestDS1302ShortBurst(t *testing.T) {
	c := NewDS1302()
	if err := c.Write([]byte{0x71, 0x00}); err != nil {
		t.Fatal(err)
	}

	// seconds, minutes, hours = 1, 2, 3
	if err := c.Write([]byte{0x7D, 0x80, 0x40, 0xC0}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x02, 0x03}
	if diff := cmp.Diff(want, c.Regs[:RegDate]); diff != "" {
		t.Errorf("3-byte burst (-want +got):\n%s", diff)
	}

	// full calendar burst with year 24 but no write-protect byte
	if err := c.Write([]byte{0x7D, 0x80, 0x40, 0xC0, 0x20, 0xA0, 0x60, 0x24}); err != nil {
		t.Fatal(err)
	}
	if c.Regs[RegDay] != 0x06 {
		t.Errorf("day = %#x, want 0x06", c.Regs[RegDay])
	}
	if c.Regs[RegYear] != 0x00 {
		t.Errorf("year = %#x, want unchanged 0x00", c.Regs[RegYear])
	}
}
