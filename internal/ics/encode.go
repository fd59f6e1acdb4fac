// Package ics renders a fixed rendez-vous as an RFC 5545 calendar document.
package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rendezvous/internal/domain"
)

// MIMEType is the content type of the produced document.
const MIMEType = "text/calendar"

const (
	prodID     = "-//Rendez Vous//Schedule//EN"
	timeLayout = "20060102T150405Z"
	crlf       = "\r\n"
)

// Filename returns the suggested download filename for a rendez-vous.
func Filename(rv *domain.RendezVous) string {
	return fmt.Sprintf("rendez-vous-%s.ics", rv.ID)
}

// Encode renders one VEVENT for the rendez-vous. The actor must be the
// organizer or a listed attendee; the definitive date must be set and the
// duration must parse as H:MM or HH:MM. Any violation yields an error wrapping
// domain.ErrExport (or domain.ErrForbidden for the actor check) and no
// partial output.
func Encode(rv *domain.RendezVous, actorID, url string, now time.Time) ([]byte, error) {
	if !rv.IsOrganizer(actorID) && !rv.HasAttendee(actorID) {
		return nil, domain.ErrForbidden
	}
	if rv.DefinitiveDate == nil {
		return nil, fmt.Errorf("%w: no definitive date", domain.ErrExport)
	}
	minutes, err := ParseDuration(rv.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExport, err)
	}

	start := rv.DefinitiveDate.UTC()
	end := start.Add(time.Duration(minutes) * time.Minute)

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "BEGIN:VEVENT")
	writeLine(&b, "DTEND:"+end.Format(timeLayout))
	writeLine(&b, "UID:"+uuid.NewString())
	writeLine(&b, "DTSTAMP:"+now.UTC().Format(timeLayout))
	writeLine(&b, "LOCATION:"+Escape(rv.Venue))
	writeLine(&b, "DESCRIPTION:"+Escape(rv.Description))
	writeLine(&b, "URL:"+url)
	writeLine(&b, "SUMMARY:"+Escape(rv.Title))
	writeLine(&b, "DTSTART:"+start.Format(timeLayout))
	writeLine(&b, "END:VEVENT")
	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String()), nil
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString(crlf)
}

// Escape backslash-prefixes the characters reserved in iCalendar text values.
func Escape(s string) string {
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, ";", `\;`)
	return s
}

// ParseDuration converts an "H:MM" or "HH:MM" duration string to minutes.
func ParseDuration(duration string) (int, error) {
	parts := strings.Split(duration, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed duration %q", duration)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("malformed duration %q", duration)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("malformed duration %q", duration)
	}
	return hours*60 + mins, nil
}
