package ds1302

import "math/bits"

// decToBcd packs the tens digit into the high nibble and the units digit into
// the low nibble. Values above 99 overflow the high nibble.
func decToBcd(dec uint8) uint8 {
	return (dec/10)<<4 + dec%10
}

// bcdToDec unpacks a BCD byte. Nibbles above 9 are not rejected.
func bcdToDec(bcd uint8) uint8 {
	return (bcd>>4)*10 + bcd&0x0F
}

// reverse swaps the bit order of b, converting between the chip's LSB-first
// framing and the MSB-first bus.
func reverse(b byte) byte {
	return bits.Reverse8(b)
}

// encode turns a decimal register value into the byte sent on the bus.
func encode(dec uint8) byte {
	return reverse(decToBcd(dec))
}

// decode is the inverse of encode.
func decode(b byte) uint8 {
	return bcdToDec(reverse(b))
}
