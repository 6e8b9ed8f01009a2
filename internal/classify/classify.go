// Package classify maps input text to the category label shown in the info panel.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nadzzz/qrforge/internal/qr"
)

// Category is a semantic label for symbol content.
type Category string

const (
	URL     Category = "URL"
	Email   Category = "Email"
	Phone   Category = "Phone Number"
	WiFi    Category = "WiFi Network"
	Numbers Category = "Numbers"
	Text    Category = "Text"
)

var (
	phonePattern  = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// Detect returns the category of text. Rules are evaluated in order and the
// first match wins.
//
// The phone rule runs before the digits rule, so a string of digits is a
// Phone Number and Numbers is only reachable for input the phone rule rejects.
// That ordering is relied upon by existing clients and must not change.
func Detect(text string) Category {
	switch {
	case strings.HasPrefix(text, "http://"), strings.HasPrefix(text, "https://"):
		return URL
	case strings.HasPrefix(text, "mailto:"):
		return Email
	case phonePattern.MatchString(text):
		return Phone
	case strings.HasPrefix(text, "WIFI:"):
		return WiFi
	case digitsPattern.MatchString(text):
		return Numbers
	default:
		return Text
	}
}

// Describe derives the metadata for a normalized request generated at now.
func Describe(req qr.Request, now time.Time) qr.Metadata {
	return qr.Metadata{
		Category:  string(Detect(req.Text)),
		Size:      fmt.Sprintf("%dx%d", req.Size, req.Size),
		CreatedAt: now,
		Length:    len([]rune(req.Text)),
	}
}
