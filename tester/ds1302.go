// Package tester provides simulated hardware for testing drivers without a board.
package tester

import (
	"errors"
	"math/bits"
	"time"
)

// ErrNotCommand is returned for frames whose first byte is not a valid DS1302 command.
var ErrNotCommand = errors.New("tester: not a DS1302 command byte")

// DS1302 register indexes, in burst order.
const (
	RegSeconds = iota
	RegMinutes
	RegHours
	RegDate
	RegMonth
	RegDay
	RegYear
	RegWriteProtect
	numRegs
)

const (
	cmdValid     = 0x80 // bit 7 of every command
	cmdRAM       = 0x40
	cmdRead      = 0x01
	burstAddress = 31
	flagBit      = 0x80 // clock halt in seconds, WP in write protect
)

// Frame is one transaction seen by the simulated chip. Out is in bus order, as the driver sent it.
type Frame struct {
	Out  []byte
	Read int // bytes clocked back, zero for writes
}

// DS1302 simulates the clock registers of a DS1302 behind a bit-reversing, MSB-first bus. It implements the Bus
// interface of the ds1302 package.
//
// A burst write that ends on the year, without the write-protect byte, leaves the year unchanged. Other short bursts
// write every byte they carry.
type DS1302 struct {
	Regs   [numRegs]byte // natural register values
	Frames []Frame

	// WriteErr fails the next Write without touching the registers.
	WriteErr error
	// ReadErr fails the next Transfer after the command was sent and one byte was read back.
	ReadErr error
}

// NewDS1302 returns a chip in its power-on state: oscillator halted, write protected, 2000-01-01.
func NewDS1302() *DS1302 {
	c := &DS1302{}
	c.Regs[RegSeconds] = flagBit
	c.Regs[RegDate] = 0x01
	c.Regs[RegMonth] = 0x01
	c.Regs[RegDay] = 0x01
	c.Regs[RegWriteProtect] = flagBit
	return c
}

func (c *DS1302) Write(w []byte) error {
	c.Frames = append(c.Frames, Frame{Out: append([]byte(nil), w...)})
	if c.WriteErr != nil {
		err := c.WriteErr
		c.WriteErr = nil
		return err
	}
	if len(w) == 0 {
		return ErrNotCommand
	}
	cmd := bits.Reverse8(w[0])
	if cmd&cmdValid == 0 {
		return ErrNotCommand
	}
	if cmd&(cmdRAM|cmdRead) != 0 {
		// RAM is not simulated and a read command with no read is a no-op.
		return nil
	}
	data := w[1:]
	addr := int(cmd>>1) & 0x1F

	if addr == burstAddress {
		if c.Protected() {
			return nil
		}
		n := len(data)
		if n > numRegs {
			n = numRegs
		}
		for i := 0; i < n; i++ {
			if i == RegYear && n == RegYear+1 {
				// year is only committed once the write-protect byte follows
				break
			}
			c.Regs[i] = bits.Reverse8(data[i])
		}
		return nil
	}

	if addr >= numRegs || len(data) == 0 {
		return nil
	}
	if addr != RegWriteProtect && c.Protected() {
		return nil
	}
	c.Regs[addr] = bits.Reverse8(data[0])
	return nil
}

func (c *DS1302) Transfer(w, r []byte) error {
	c.Frames = append(c.Frames, Frame{Out: append([]byte(nil), w...), Read: len(r)})
	if len(w) == 0 {
		return ErrNotCommand
	}
	cmd := bits.Reverse8(w[0])
	if cmd&cmdValid == 0 {
		return ErrNotCommand
	}
	for i := range r {
		r[i] = 0
	}
	if cmd&cmdRAM == 0 && cmd&cmdRead != 0 {
		addr := int(cmd>>1) & 0x1F
		switch {
		case addr == burstAddress:
			for i := 0; i < len(r) && i < numRegs; i++ {
				r[i] = bits.Reverse8(c.Regs[i])
			}
		case addr < numRegs && len(r) > 0:
			r[0] = bits.Reverse8(c.Regs[addr])
		}
	}
	if c.ReadErr != nil {
		err := c.ReadErr
		c.ReadErr = nil
		for i := 1; i < len(r); i++ {
			r[i] = 0
		}
		return err
	}
	return nil
}

// Halted reports whether the clock-halt flag is set.
func (c *DS1302) Halted() bool {
	return c.Regs[RegSeconds]&flagBit != 0
}

// Protected reports whether the write-protect flag is set.
func (c *DS1302) Protected() bool {
	return c.Regs[RegWriteProtect]&flagBit != 0
}

// Time decodes the clock registers. The day of week register is ignored.
func (c *DS1302) Time() time.Time {
	return time.Date(
		2000+bcd(c.Regs[RegYear]),
		time.Month(bcd(c.Regs[RegMonth]&0x1F)),
		bcd(c.Regs[RegDate]&0x3F),
		bcd(c.Regs[RegHours]&0x3F),
		bcd(c.Regs[RegMinutes]&0x7F),
		bcd(c.Regs[RegSeconds]&0x7F),
		0, time.UTC)
}

// SetTime loads t into the clock registers, keeping both flags as they are.
func (c *DS1302) SetTime(t time.Time) {
	c.Regs[RegSeconds] = c.Regs[RegSeconds]&flagBit | toBCD(t.Second())
	c.Regs[RegMinutes] = toBCD(t.Minute())
	c.Regs[RegHours] = toBCD(t.Hour())
	c.Regs[RegDate] = toBCD(t.Day())
	c.Regs[RegMonth] = toBCD(int(t.Month()))
	c.Regs[RegDay] = toBCD(int(t.Weekday()) + 1)
	c.Regs[RegYear] = toBCD(t.Year() % 100)
}

// Advance moves the clock forward by d, unless the oscillator is halted.
func (c *DS1302) Advance(d time.Duration) {
	if c.Halted() {
		return
	}
	c.SetTime(c.Time().Add(d))
}

// Reset forgets recorded frames.
func (c *DS1302) Reset() {
	c.Frames = nil
}

func bcd(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

func toBCD(v int) byte {
	return byte(v/10<<4 | v%10)
}
