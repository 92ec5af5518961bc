package detect

import (
	"regexp"
	"strings"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// experienceRules are evaluated in declaration order: lead, then senior,
// then junior, then mid. The first group with any matching rule wins. The
// ordering is a business rule, not an accident: text carrying both senior
// and junior cues must resolve to senior.
var experienceRules = []struct {
	level model.ExperienceLevel
	rules []*regexp.Regexp
}{
	{
		level: model.ExperienceLead,
		rules: []*regexp.Regexp{
			regexp.MustCompile(`\blead\b`),
			regexp.MustCompile(`\bstaff\b`),
			regexp.MustCompile(`\bprincipal\b`),
			regexp.MustCompile(`\bhead of\b`),
			regexp.MustCompile(`\barchitecte?\b`),
			regexp.MustCompile(`\bengineering manager\b`),
			regexp.MustCompile(`\bdirecteur\b`),
		},
	},
	{
		level: model.ExperienceSenior,
		rules: []*regexp.Regexp{
			regexp.MustCompile(`\bsenior\b`),
			regexp.MustCompile(`\bsr\.?\b`),
			regexp.MustCompile(`\bexpert\b`),
			regexp.MustCompile(`\bexperimente\b`),
			regexp.MustCompile(`\bconfirme\b`),
			regexp.MustCompile(`\b(?:[5-9]|1[0-9])\s*\+?\s*(?:years?|ans?)\b`),
		},
	},
	{
		level: model.ExperienceJunior,
		rules: []*regexp.Regexp{
			regexp.MustCompile(`\bjunior\b`),
			regexp.MustCompile(`\bjr\.?\b`),
			regexp.MustCompile(`\bentry[ -]level\b`),
			regexp.MustCompile(`\bgraduate\b`),
			regexp.MustCompile(`\bdebutant\b`),
			regexp.MustCompile(`\bstage\b|\bstagiaire\b|\bintern(?:ship)?\b`),
			regexp.MustCompile(`\b[0-2]\s*(?:years?|ans?)\b`),
		},
	},
	{
		level: model.ExperienceMid,
		rules: []*regexp.Regexp{
			regexp.MustCompile(`\bmid[ -]?level\b`),
			regexp.MustCompile(`\bintermediate\b`),
			regexp.MustCompile(`\bintermediaire\b`),
			regexp.MustCompile(`\b[3-4]\s*\+?\s*(?:years?|ans?)\b`),
		},
	},
}

// Experience classifies a job into one of the five experience categories by
// matching the concatenation of title, the provider's explicit level text
// and the description, lowercased with accents stripped. Rule groups are
// tested in strict precedence order (lead > senior > junior > mid);
// unknown when nothing matches.
func Experience(title string, explicitLevel *string, description string) model.ExperienceLevel {
	var parts []string
	if title != "" {
		parts = append(parts, title)
	}
	if explicitLevel != nil && *explicitLevel != "" {
		parts = append(parts, *explicitLevel)
	}
	if description != "" {
		parts = append(parts, description)
	}
	if len(parts) == 0 {
		return model.ExperienceUnknown
	}

	text := Normalize(strings.Join(parts, " "))
	for _, group := range experienceRules {
		for _, rule := range group.rules {
			if rule.MatchString(text) {
				return group.level
			}
		}
	}
	return model.ExperienceUnknown
}
