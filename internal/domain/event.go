package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type CTAType string

const (
	CTAWhatsApp CTAType = "whatsapp"
	CTALink     CTAType = "link"
)

// EventCTA is an optional call to action. Link CTAs carry an outbound URL;
// WhatsApp CTAs carry a message template sent to the hostel contact.
type EventCTA struct {
	Type    CTAType `json:"type" yaml:"type"`
	Label   string  `json:"label" yaml:"label"`
	URL     string  `json:"url" yaml:"url"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// Href resolves the CTA into the URL the page should link to.
func (c EventCTA) Href(s Settings) string {
	if c.Type != CTAWhatsApp {
		return c.URL
	}
	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s.ContactWhatsApp)
	if phone == "" {
		return c.URL
	}
	href := "https://wa.me/" + phone
	if c.Message != "" {
		href += "?text=" + url.QueryEscape(c.Message)
	}
	return href
}

type HostelEvent struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Date        string    `json:"date" yaml:"date"`
	StartTime   string    `json:"startTime" yaml:"startTime"`
	EndTime     string    `json:"endTime" yaml:"endTime"`
	Location    string    `json:"location" yaml:"location"`
	Price       *string   `json:"price" yaml:"price"`
	CTA         *EventCTA `json:"cta" yaml:"cta"`
}

type EventsFile struct {
	Events []HostelEvent `json:"events" yaml:"events"`
}

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses the event's ISO-8601 date. Values without an explicit
// offset are interpreted in loc.
func (e HostelEvent) ParseDate(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSpace(e.Date)
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("event %q: %w: %q", e.ID, ErrInvalidEventDate, e.Date)
}
