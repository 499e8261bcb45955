package protocol

const (
	// MinDelay is the fastest pattern step the firmware accepts
	MinDelay = 1
	// MaxDelay is the slowest pattern step the firmware accepts
	MaxDelay = 31
)

// PercentToByte rescales 0-100 to 0-255, rounding half up.
// Out of range input is clamped.
func PercentToByte(percent int) byte {
	percent = clamp(percent, 0, 100)
	return byte((percent*255 + 50) / 100)
}

// ByteToPercent rescales 0-255 to 0-100, rounding half up
func ByteToPercent(b byte) int {
	return (int(b)*200 + 255) / 510
}

// SpeedToDelay converts a 0-100 speed into the device delay byte (1-31).
// Faster speeds give smaller delays. Rounds half up.
func SpeedToDelay(speed int) byte {
	inv := 100 - clamp(speed, 0, 100)
	return byte(MinDelay + (inv*(MaxDelay-MinDelay)+50)/100)
}

// DelayToSpeed converts a delay byte back into a 0-100 speed, rounding to
// nearest. With only 31 steps a speed survives SpeedToDelay then
// DelayToSpeed to within 2 percent.
func DelayToSpeed(delay byte) int {
	span := MaxDelay - MinDelay
	d := clamp(int(delay), MinDelay, MaxDelay) - MinDelay
	return 100 - (d*100+span/2)/span
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
