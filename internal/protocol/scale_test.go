package protocol

import "testing"

func TestSpeedToDelayBounds(t *testing.T) {
	tests := []struct {
		speed int
		want  byte
	}{
		{100, 1},
		{0, 31},
		{150, 1},
		{-5, 31},
		{50, 16},
	}
	for _, tt := range tests {
		if got := SpeedToDelay(tt.speed); got != tt.want {
			t.Errorf("SpeedToDelay(%d) = %d, want %d", tt.speed, got, tt.want)
		}
	}
}

func TestSpeedToDelayMonotonic(t *testing.T) {
	prev := SpeedToDelay(0)
	for speed := 1; speed <= 100; speed++ {
		d := SpeedToDelay(speed)
		if d > prev {
			t.Fatalf("SpeedToDelay(%d) = %d, larger than SpeedToDelay(%d) = %d", speed, d, speed-1, prev)
		}
		prev = d
	}
}

func TestDelayToSpeedMonotonic(t *testing.T) {
	prev := DelayToSpeed(MinDelay)
	for d := MinDelay + 1; d <= MaxDelay; d++ {
		s := DelayToSpeed(byte(d))
		if s > prev {
			t.Fatalf("DelayToSpeed(%d) = %d, larger than DelayToSpeed(%d) = %d", d, s, d-1, prev)
		}
		prev = s
	}
}

func TestSpeedRoundTrip(t *testing.T) {
	for speed := 0; speed <= 100; speed++ {
		got := DelayToSpeed(SpeedToDelay(speed))
		if diff := got - speed; diff < -2 || diff > 2 {
			t.Errorf("speed %d round-trips to %d", speed, got)
		}
	}

	// half steps land exactly on a delay
	for _, speed := range []int{0, 50, 100} {
		got := DelayToSpeed(SpeedToDelay(speed))
		if diff := got - speed; diff < -1 || diff > 1 {
			t.Errorf("speed %d round-trips to %d", speed, got)
		}
	}
}

func TestDelayToSpeedNearest(t *testing.T) {
	for d := MinDelay; d <= MaxDelay; d++ {
		// speed = 100 - (d-1)*10/3, rounded to nearest in thirds
		thirds := 300 - (d-MinDelay)*10
		want := thirds / 3
		if thirds%3 == 2 {
			want++
		}
		if got := DelayToSpeed(byte(d)); got != want {
			t.Errorf("DelayToSpeed(%d) = %d, want %d", d, got, want)
		}
	}

	tests := []struct {
		delay byte
		want  int
	}{
		{1, 100},
		{3, 93},
		{6, 83},
		{16, 50},
		{31, 0},
	}
	for _, tt := range tests {
		if got := DelayToSpeed(tt.delay); got != tt.want {
			t.Errorf("DelayToSpeed(%d) = %d, want %d", tt.delay, got, tt.want)
		}
	}
}

func TestDelayToSpeedClamps(t *testing.T) {
	if got := DelayToSpeed(0); got != 100 {
		t.Errorf("DelayToSpeed(0) = %d, want 100", got)
	}
	if got := DelayToSpeed(0xff); got != 0 {
		t.Errorf("DelayToSpeed(255) = %d, want 0", got)
	}
}

func TestPercentByte(t *testing.T) {
	tests := []struct {
		percent int
		want    byte
	}{
		{0, 0},
		{100, 255},
		{50, 128},
		{80, 204},
		{1, 3},
		{120, 255},
	}
	for _, tt := range tests {
		if got := PercentToByte(tt.percent); got != tt.want {
			t.Errorf("PercentToByte(%d) = %d, want %d", tt.percent, got, tt.want)
		}
	}

	for p := 0; p <= 100; p++ {
		if got := ByteToPercent(PercentToByte(p)); got != p {
			t.Errorf("percent %d round-trips to %d", p, got)
		}
	}
	if got := ByteToPercent(255); got != 100 {
		t.Errorf("ByteToPercent(255) = %d, want 100", got)
	}
}
