package providers

import (
	"strings"

	"github.com/jobpulse/jobpulse/internal/detect"
)

// remoteKeywords flag a posting as remote when found in its location or
// description. Accents are stripped before matching, so one spelling per
// keyword is enough.
var remoteKeywords = []string{
	"remote",
	"teletravail",
	"full remote",
	"fully remote",
	"work from home",
	"home office",
	"distanciel",
	"anywhere",
}

// LooksRemote applies the fixed remote-work keyword list to a posting's
// location and description text. Mappers use it for providers whose DTOs
// don't carry an explicit remote flag.
func LooksRemote(location, description string) bool {
	text := detect.Normalize(location + " " + description)
	for _, kw := range remoteKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
