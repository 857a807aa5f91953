package convert

import (
	"fmt"
	"time"
)

const (
	apiTimestampLayout = "2006-01-02T15:04:05Z"
	displayLayout      = "02-01-2006 15:04:05"
)

// IST is Indian Standard Time, UTC+05:30. All displayed timestamps use it.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// ToIST converts an API timestamp such as "2024-03-01T18:45:00Z" to
// "02-03-2024 00:15:00". Fractional seconds are rejected.
func ToIST(ts string) (string, error) {
	if len(ts) != len(apiTimestampLayout) {
		return "", fmt.Errorf("parse timestamp %q: want layout %s", ts, apiTimestampLayout)
	}
	t, err := time.Parse(apiTimestampLayout, ts)
	if err != nil {
		return "", fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return t.In(IST).Format(displayLayout), nil
}
