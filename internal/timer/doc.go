// Package timer encodes and decodes the six slot on-device timer table.
//
// The table is positional: six 14 byte slots, always all six, 84 bytes in
// total. Each slot looks like this:
//
//	[0]      F0 active, anything else inactive
//	[1..3]   year-2000, month, day   one-shot date, zero when repeating
//	[4..5]   hour, minute
//	[6]      00
//	[7]      weekday repeat mask      Mo=02 Tu=04 We=08 Th=10 Fr=20 Sa=40 Su=80
//	[8]      action code              00 default, 61 color or white, preset, A1 sunrise, A2 sunset
//	[9..11]  R G B | delay | duration, start, end brightness
//	[12]     warm white level
//	[13]     F0 turn on, 0F turn off
//
// A non-zero repeat mask makes the slot repeating; a zero mask makes it a
// one-shot on the encoded date.
package timer
