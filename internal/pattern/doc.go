// Package pattern encodes built-in preset selections and caller-defined
// custom color sequences.
//
// A custom pattern has a compact body form used for storage and inspection:
//
//	[0]       transition   3A gradual, 3B jump, 3C strobe
//	[1]       delay        1-31, see protocol.SpeedToDelay
//	[2..]     R G B        one triple per color, 1 to 16 colors
//	[last]    FF           terminator
//
// CustomCommand expands the same value into the 0x51 device command, which
// always carries 16 color slots.
package pattern
