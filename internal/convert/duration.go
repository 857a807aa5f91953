package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var durationComponent = regexp.MustCompile(`(\d+)([HMS])`)

// HumanDuration renders an ISO-8601 duration like "PT1H2M3S" as
// "1 hours 2 minutes 3 seconds". Zero components are omitted, except that a
// duration with no hours and no minutes always shows its seconds.
func HumanDuration(iso string) string {
	var timePart string
	if i := strings.IndexByte(iso, 'T'); i >= 0 {
		timePart = iso[i+1:]
	}

	var hours, minutes, seconds int
	for _, m := range durationComponent.FindAllStringSubmatch(timePart, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "H":
			hours = n
		case "M":
			minutes = n
		case "S":
			seconds = n
		}
	}

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		parts = append(parts, fmt.Sprintf("%d seconds", seconds))
	}
	return strings.Join(parts, " ")
}
