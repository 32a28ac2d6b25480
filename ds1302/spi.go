package ds1302

import (
	"tinygo.org/x/drivers"
)

// Pin is an output pin. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// SPIBus runs the DS1302 protocol over an SPI peripheral. The DS1302 chip-enable line is active high, so it cannot
// use the peripheral's own chip select.
//
// Configure the SPI in mode 1 (clock idle low, sample on the second edge) at 2 MHz or less, with SDO and SDI wired
// together through a resistor onto the chip's single I/O line.
type SPIBus struct {
	spi drivers.SPI
	ce  Pin
}

// NewSPI returns a Bus on a configured SPI peripheral and the pin wired to CE. CE is driven low.
func NewSPI(spi drivers.SPI, ce Pin) *SPIBus {
	ce.Set(false)
	return &SPIBus{
		spi: spi,
		ce:  ce,
	}
}

func (b *SPIBus) Write(w []byte) error {
	b.ce.Set(true)
	defer b.ce.Set(false)
	return b.spi.Tx(w, nil)
}

// Transfer sends w and then clocks in r while CE stays high.
func (b *SPIBus) Transfer(w, r []byte) error {
	b.ce.Set(true)
	defer b.ce.Set(false)
	err := b.spi.Tx(w, nil)
	if err != nil {
		return err
	}
	return b.spi.Tx(nil, r)
}
