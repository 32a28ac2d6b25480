// Package stepper drives a unipolar stepper motor such as the 28BYJ-48 through a ULN2003 darlington array, one GPIO
// per coil, using the eight-phase half-step sequence.
//
// All moves block until the last phase has been held for the configured speed.
package stepper

import (
	"time"
)

// StepsPerRev is the number of full passes through the phase sequence per output shaft revolution.
const StepsPerRev = 512

// Pin is an output pin. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// Speed is the time each phase is held, in milliseconds.
type Speed uint8

const (
	Fast Speed = 1
	Mid  Speed = 2
	Slow Speed = 3
)

// half-step phase table, coils in1..in4
var sequence = [8][4]bool{
	{true, false, false, false},
	{true, true, false, false},
	{false, true, false, false},
	{false, true, true, false},
	{false, false, true, false},
	{false, false, true, true},
	{false, false, false, true},
	{true, false, false, true},
}

type Device struct {
	coils [4]Pin
	speed Speed

	// Sleep is called after each phase. It defaults to time.Sleep.
	Sleep func(time.Duration)
}

// New returns a driver for the motor wired to in1 through in4. The pins must already be configured as outputs.
func New(in1, in2, in3, in4 Pin) *Device {
	return &Device{
		coils: [4]Pin{in1, in2, in3, in4},
		speed: Fast,
		Sleep: time.Sleep,
	}
}

func (d *Device) SetSpeed(s Speed) {
	d.speed = s
}

func (d *Device) Speed() Speed {
	return d.speed
}

// StepOneCW runs the phase sequence once clockwise.
func (d *Device) StepOneCW() {
	for _, phase := range sequence {
		d.apply(phase[0], phase[1], phase[2], phase[3])
	}
}

// StepOneCCW runs the phase sequence once with the coil order reversed.
func (d *Device) StepOneCCW() {
	for _, phase := range sequence {
		d.apply(phase[3], phase[2], phase[1], phase[0])
	}
}

func (d *Device) StepCW(n uint32) {
	for i := uint32(0); i < n; i++ {
		d.StepOneCW()
	}
}

func (d *Device) StepCCW(n uint32) {
	for i := uint32(0); i < n; i++ {
		d.StepOneCCW()
	}
}

// RotateCW turns the shaft clockwise by angle degrees, rounded down to whole steps.
func (d *Device) RotateCW(angle uint16) {
	d.StepCW(Steps(angle))
}

// RotateCCW turns the shaft counter-clockwise by angle degrees, rounded down to whole steps.
func (d *Device) RotateCCW(angle uint16) {
	d.StepCCW(Steps(angle))
}

// Rest turns all coils off. The motor holds no torque until the next step.
func (d *Device) Rest() {
	for _, c := range d.coils {
		c.Set(false)
	}
}

// Steps converts degrees to whole steps.
func Steps(angle uint16) uint32 {
	return uint32(angle) * StepsPerRev / 360
}

func (d *Device) apply(c1, c2, c3, c4 bool) {
	d.coils[0].Set(c1)
	d.coils[1].Set(c2)
	d.coils[2].Set(c3)
	d.coils[3].Set(c4)
	d.Sleep(time.Duration(d.speed) * time.Millisecond)
}
