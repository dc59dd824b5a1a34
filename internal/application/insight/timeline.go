package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

// EventType distinguishes the origin of a timeline entry.
type EventType string

const (
	EventDeadline   EventType = "deadline"
	EventObligation EventType = "obligation"
)

// DateTBD is the placeholder date for events whose date string is missing or
// could not be parsed.
const DateTBD = "TBD"

// TimelineEvent is one entry of the merged deadline timeline.  Events are
// ephemeral: they are rebuilt from the analysis on every request.
type TimelineEvent struct {
	Type        EventType `json:"type"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Consequence string    `json:"consequence,omitempty"`
	Urgency     string    `json:"urgency"`
	Priority    string    `json:"priority"`

	// parsed is set when Date was parseable; used only for sorting.
	parsed time.Time
	dated  bool
}

// dateLayouts are the formats accepted for analyzer-supplied date strings, in
// preference order.  Anything else degrades to TBD rather than failing.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"2006/01/02",
}

// BuildTimeline merges the analysis deadlines and dated obligations into a
// single list sorted ascending by date.  Events without a parseable date sort
// last, keeping their relative input order.
func BuildTimeline(a *analysis.DocumentAnalysis, now time.Time) []TimelineEvent {
	events := []TimelineEvent{}
	if a == nil {
		return events
	}

	for _, d := range a.Deadlines {
		events = append(events, newEvent(EventDeadline, d.Description, d.Date, d.Consequence, now))
	}
	for _, o := range a.Obligations {
		if strings.TrimSpace(o.Deadline) == "" {
			continue
		}
		title := o.Description
		if o.Party != "" {
			title = o.Party + ": " + o.Description
		}
		events = append(events, newEvent(EventObligation, title, o.Deadline, "", now))
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].dated != events[j].dated {
			return events[i].dated
		}
		if !events[i].dated {
			return false
		}
		return events[i].parsed.Before(events[j].parsed)
	})
	return events
}

func newEvent(kind EventType, title, rawDate, consequence string, now time.Time) TimelineEvent {
	ev := TimelineEvent{
		Type:        kind,
		Title:       title,
		Date:        DateTBD,
		Consequence: consequence,
		Urgency:     "Date TBD",
		Priority:    "low",
	}

	parsed, ok := parseDate(rawDate)
	if !ok {
		return ev
	}

	ev.Date = parsed.Format("2006-01-02")
	ev.parsed = parsed
	ev.dated = true

	days := daysUntil(now, parsed)
	ev.Urgency = urgencyLabel(days)
	ev.Priority = priorityFor(days)
	return ev
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, DateTBD) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysUntil counts whole calendar days from now to the event date, ignoring
// time-of-day so an event later today is "TODAY" rather than "Tomorrow".
func daysUntil(now, date time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	eventDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(eventDay.Sub(nowDay).Hours() / 24)
}

func urgencyLabel(days int) string {
	switch {
	case days < 0:
		return "OVERDUE"
	case days == 0:
		return "TODAY"
	case days == 1:
		return "Tomorrow"
	case days <= 7:
		return fmt.Sprintf("%d days", days)
	case days <= 30:
		return fmt.Sprintf("%d weeks", (days+6)/7)
	default:
		return fmt.Sprintf("%d months", (days+29)/30)
	}
}

func priorityFor(days int) string {
	switch {
	case days <= 7:
		return "high"
	case days <= 30:
		return "medium"
	default:
		return "low"
	}
}

// ExportCalendar renders the dated timeline events as a plain-text calendar.
// Each dated event becomes one block with a reminder set one day before the
// event; undated (TBD) events are skipped.
func ExportCalendar(events []TimelineEvent) string {
	var b strings.Builder
	b.WriteString("BEGIN:CALENDAR\n")
	for _, ev := range events {
		if !ev.dated {
			continue
		}
		reminder := ev.parsed.AddDate(0, 0, -1)
		b.WriteString("BEGIN:EVENT\n")
		fmt.Fprintf(&b, "SUMMARY:%s\n", sanitizeCalendarText(ev.Title))
		fmt.Fprintf(&b, "DATE:%s\n", ev.Date)
		if ev.Consequence != "" {
			fmt.Fprintf(&b, "DESCRIPTION:%s\n", sanitizeCalendarText(ev.Consequence))
		}
		fmt.Fprintf(&b, "REMINDER:%s\n", reminder.Format("2006-01-02"))
		b.WriteString("END:EVENT\n")
	}
	b.WriteString("END:CALENDAR\n")
	return b.String()
}

func sanitizeCalendarText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
