// Package schedule holds the fixed daily timetable content and the time rules
// applied to it. The content is static configuration embedded at build time;
// nothing here is mutated at runtime.
package schedule

import (
	_ "embed"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed content.yml
var contentYAML []byte

// Block is one entry in the fixed daily schedule.
type Block struct {
	ID       string `yaml:"id" json:"id"`     // Stable identifier, not used for completion storage yet
	Time     string `yaml:"time" json:"time"` // Display label, e.g. "5:00 – 5:20 AM"
	Activity string `yaml:"activity" json:"activity"`
	Note     string `yaml:"note" json:"note,omitempty"`
}

type content struct {
	Blocks  []Block  `yaml:"blocks"`
	Prompts []string `yaml:"prompts"`
}

var loaded = mustLoad()

func mustLoad() content {
	var c content
	if err := yaml.Unmarshal(contentYAML, &c); err != nil {
		panic(fmt.Sprintf("schedule: embedded content is malformed: %v", err))
	}
	if len(c.Blocks) == 0 || len(c.Prompts) == 0 {
		panic("schedule: embedded content is empty")
	}
	return c
}

// Blocks returns the fixed schedule. Callers must not modify the returned slice.
func Blocks() []Block {
	return loaded.Blocks
}

// Prompts returns the fixed gratitude prompt list. Callers must not modify the
// returned slice.
func Prompts() []string {
	return loaded.Prompts
}

// BlockWindowMinutes is the synthetic duration applied to every block when
// deciding which one is "current", regardless of the span its label states.
const BlockWindowMinutes = 30

var startRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)?`)

// ParseStartMinutes extracts a block label's start time as minutes past
// midnight. Supports bare hour:minute with an optional AM/PM suffix;
// 12 AM maps to hour 0, 12 PM stays hour 12, other PM hours gain 12.
//
// In span labels like "11:30 – 1:00 PM" the suffix is written only after the
// end time; it is applied to the start time too, stepping back a half-day when
// the span crosses noon. Returns false if the label carries no parseable time.
func ParseStartMinutes(label string) (int, bool) {
	matches := startRe.FindAllStringSubmatch(label, -1)
	if len(matches) == 0 {
		return 0, false
	}

	first := matches[0]
	suffix := strings.ToUpper(first[3])
	if suffix == "" {
		// Borrow the end time's suffix
		suffix = strings.ToUpper(matches[len(matches)-1][3])
	}

	start := clockMinutes(first[1], first[2], suffix)

	if len(matches) > 1 {
		last := matches[len(matches)-1]
		end := clockMinutes(last[1], last[2], strings.ToUpper(last[3]))
		// "11:30 – 1:00 PM" starts before noon; the borrowed suffix overshot
		if start > end {
			start -= 12 * 60
		}
	}

	return start, true
}

func clockMinutes(hourStr, minuteStr, suffix string) int {
	hours, _ := strconv.Atoi(hourStr)
	minutes, _ := strconv.Atoi(minuteStr)

	switch {
	case suffix == "PM" && hours != 12:
		hours += 12
	case suffix == "AM" && hours == 12:
		hours = 0
	}

	return hours*60 + minutes
}

// IsCurrent reports whether a block with the given label is current at
// nowMinutes (minutes past midnight): blockStart <= now < blockStart+30.
func IsCurrent(label string, nowMinutes int) bool {
	start, ok := ParseStartMinutes(label)
	if !ok {
		return false
	}
	return nowMinutes >= start && nowMinutes < start+BlockWindowMinutes
}

// CurrentIndex returns the index of the block current at nowMinutes, or -1 if
// none matches. When synthetic windows overlap, the later block wins, matching
// how the blocks render in order.
func CurrentIndex(nowMinutes int) int {
	current := -1
	for i, b := range loaded.Blocks {
		if IsCurrent(b.Time, nowMinutes) {
			current = i
		}
	}
	return current
}

// MinutesOfDay returns t's wall-clock time as minutes past midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Percent returns the completion percentage of a done array, rounded to the
// nearest whole number. An empty array is 0 percent.
func Percent(done []bool) int {
	if len(done) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(countTrue(done)) / float64(len(done))))
}

// Remaining returns how many entries of a done array are still false.
func Remaining(done []bool) int {
	return len(done) - countTrue(done)
}

func countTrue(done []bool) int {
	n := 0
	for _, d := range done {
		if d {
			n++
		}
	}
	return n
}
