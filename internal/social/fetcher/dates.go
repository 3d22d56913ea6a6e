package fetcher

import (
	"regexp"
	"strings"
	"time"
)

// isoLayout matches JavaScript's Date.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	"Monday, 02-Jan-06 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 Z",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// rfc822Zones are the named zones RFC 822 allows. Go resolves other
// abbreviations against the host zone, so these are rewritten first.
var rfc822Zones = map[string]string{
	"UT":  "+0000",
	"UTC": "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var trailingZone = regexp.MustCompile(`\s([A-Za-z]{1,3})$`)

// NormalizeDate converts a feed date to ISO-8601 UTC. Unparseable or empty
// input yields "".
func NormalizeDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

// ParseDate tries the date layouts seen in RSS and Atom feeds.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	raw = numericZone(raw)
	for _, layout := range dateLayouts {
		// Unknown abbreviations parse as UTC rather than the host zone
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func numericZone(raw string) string {
	m := trailingZone.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw
	}
	offset, ok := rfc822Zones[strings.ToUpper(raw[m[2]:m[3]])]
	if !ok {
		return raw
	}
	return raw[:m[2]] + offset
}

// FormatDate renders t in the same ISO-8601 UTC form as NormalizeDate.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}
