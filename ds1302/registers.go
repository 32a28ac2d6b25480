package ds1302

// Register is a command byte as printed in the datasheet register map, in
// write form and before any bit reversal.
type Register uint8

const (
	Seconds      Register = 0x80 // seconds, clock-halt flag in bit 7
	Minutes      Register = 0x82
	Hours        Register = 0x84 // 12/24 select in bit 7, always 24-hour here
	Date         Register = 0x86 // day of month
	Month        Register = 0x88
	Day          Register = 0x8A // day of week, 1-7
	Year         Register = 0x8C
	WriteProtect Register = 0x8E // write-protect flag in bit 7
	ClockBurst   Register = 0xBE // seconds through write protect in one transfer
	RAM          Register = 0xC0 // first of 31 RAM bytes
	RAMBurst     Register = 0xFE
)

const (
	ReadFlag = 0x01 // low bit of a command byte, set for reads
	HaltFlag = 0x80 // clock-halt bit of the seconds register
)

// Burst transfers always exchange registers in this order:
// seconds, minutes, hours, date, month, day, year, write protect.
const (
	burstSeconds = iota
	burstMinutes
	burstHours
	burstDate
	burstMonth
	burstDay
	burstYear
	burstWriteProtect
	burstLen
)

// century is added to the two-digit year register.
const century = 2000

// Address returns the byte that selects r on the bus. The chip shifts least
// significant bit first, so the command is bit-reversed and, for reads, the
// reversed read flag is ORed in.
func (r Register) Address(read bool) byte {
	addr := reverse(byte(r))
	if read {
		addr |= reverse(ReadFlag)
	}
	return addr
}
