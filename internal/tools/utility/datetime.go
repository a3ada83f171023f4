package utility

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones on hosts without a zoneinfo database

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

const dateTimeLayout = "2006-01-02 15:04:05"

func dateTimeImpl(now time.Time, query string) (string, error) {
	raw := strings.TrimSpace(query)
	cmd := strings.ToLower(raw)

	switch {
	case cmd == "now":
		return "Current time: " + now.Format(dateTimeLayout), nil
	case cmd == "today":
		return fmt.Sprintf("Today is: %s %s", now.Format("2006-01-02"), now.Weekday()), nil
	case strings.HasPrefix(cmd, "timezone:"):
		name := strings.TrimSpace(raw[len("timezone:"):])
		loc, err := time.LoadLocation(name)
		if err != nil || name == "" {
			return "", fmt.Errorf("unknown time zone %q", name)
		}
		return fmt.Sprintf("%s current time: %s", name, now.In(loc).Format(dateTimeLayout+" MST")), nil
	case strings.HasPrefix(cmd, "add:"), strings.HasPrefix(cmd, "subtract:"):
		return "Date arithmetic is not supported yet.", nil
	}

	zone, _ := now.Zone()
	var b strings.Builder
	b.WriteString("Current date and time\n")
	fmt.Fprintf(&b, "Date: %s %s\n", now.Format("2006-01-02"), now.Weekday())
	fmt.Fprintf(&b, "Time: %s\n", now.Format("15:04:05"))
	fmt.Fprintf(&b, "Time zone: %s\n\n", zone)
	b.WriteString("Supported commands:\n")
	b.WriteString("- now: current time\n")
	b.WriteString("- today: today's date\n")
	b.WriteString("- timezone:<IANA name>: current time in that zone")
	return b.String(), nil
}

// NewDateTimeTool creates the DateTime tool. A nil clock uses time.Now.
func NewDateTimeTool(clock func() time.Time) engine.Tool {
	if clock == nil {
		clock = time.Now
	}
	return engine.NewTool(
		"DateTime",
		"Get the current date or time. Commands: 'now' (current time), 'today' (today's date), 'timezone:Asia/Shanghai' (time in a zone)",
		func(_ context.Context, query string) (string, error) {
			return dateTimeImpl(clock(), query)
		},
	)
}
