package timer

import (
	"strings"
	"time"

	"github.com/muurk/fluxled/internal/protocol"
)

// Weekdays is the repeat bit mask of a timer slot. Bit 0 is unused.
type Weekdays byte

const (
	Monday    Weekdays = 0x02
	Tuesday   Weekdays = 0x04
	Wednesday Weekdays = 0x08
	Thursday  Weekdays = 0x10
	Friday    Weekdays = 0x20
	Saturday  Weekdays = 0x40
	Sunday    Weekdays = 0x80

	WorkWeek = Monday | Tuesday | Wednesday | Thursday | Friday
	Weekend  = Saturday | Sunday
	Everyday = WorkWeek | Weekend
)

var dayOrder = [...]struct {
	bit  Weekdays
	name string
	day  time.Weekday
}{
	{Monday, "Mo", time.Monday},
	{Tuesday, "Tu", time.Tuesday},
	{Wednesday, "We", time.Wednesday},
	{Thursday, "Th", time.Thursday},
	{Friday, "Fr", time.Friday},
	{Saturday, "Sa", time.Saturday},
	{Sunday, "Su", time.Sunday},
}

// WeekdayBit returns the mask bit for a day
func WeekdayBit(d time.Weekday) Weekdays {
	for _, e := range dayOrder {
		if e.day == d {
			return e.bit
		}
	}
	return 0
}

// Has reports whether d is in the mask
func (w Weekdays) Has(d time.Weekday) bool {
	return w&WeekdayBit(d) != 0
}

// Valid reports whether only day bits are set
func (w Weekdays) Valid() bool {
	return w&0x01 == 0
}

// String renders the mask as e.g. "MoTuWeThFr----"
func (w Weekdays) String() string {
	switch w {
	case Everyday:
		return "Everyday"
	case WorkWeek:
		return "Weekdays"
	case Weekend:
		return "Weekend"
	}
	var b strings.Builder
	for _, e := range dayOrder {
		if w&e.bit != 0 {
			b.WriteString(e.name)
		} else {
			b.WriteString("--")
		}
	}
	return b.String()
}

// ParseWeekdays accepts "everyday", "weekdays", "weekend" or a comma
// separated list of two letter day names.
func ParseWeekdays(s string) (Weekdays, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "everyday":
		return Everyday, nil
	case "weekdays":
		return WorkWeek, nil
	case "weekend":
		return Weekend, nil
	}

	var w Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		found := false
		for _, e := range dayOrder {
			if strings.EqualFold(part, e.name) {
				w |= e.bit
				found = true
				break
			}
		}
		if !found {
			return 0, protocol.Errorf(protocol.KindInvalidRange, "unknown weekday %q", part)
		}
	}
	return w, nil
}
