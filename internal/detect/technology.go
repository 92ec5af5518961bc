// Package detect provides the pure pattern-matching detectors used by the
// ingestion pipeline: technology extraction from free text and experience
// level classification.
package detect

import (
	"regexp"
	"sort"
)

type techPattern struct {
	name    string
	pattern *regexp.Regexp
}

// techPatterns maps canonical technology names to case-insensitive match
// patterns. Word boundaries keep short names ("Go", "R") from matching
// inside unrelated words.
var techPatterns = []techPattern{
	{"Angular", regexp.MustCompile(`(?i)\bangular(js)?\b`)},
	{"Ansible", regexp.MustCompile(`(?i)\bansible\b`)},
	{"AWS", regexp.MustCompile(`(?i)\baws\b|\bamazon web services\b`)},
	{"Azure", regexp.MustCompile(`(?i)\bazure\b`)},
	{"C#", regexp.MustCompile(`(?i)c#|\bcsharp\b|\bc sharp\b`)},
	{"C++", regexp.MustCompile(`(?i)c\+\+|\bcpp\b`)},
	{"Django", regexp.MustCompile(`(?i)\bdjango\b`)},
	{"Docker", regexp.MustCompile(`(?i)\bdocker\b`)},
	{"Elasticsearch", regexp.MustCompile(`(?i)\belastic\s?search\b`)},
	{"Elixir", regexp.MustCompile(`(?i)\belixir\b`)},
	{"Express", regexp.MustCompile(`(?i)\bexpress(\.?js)?\b`)},
	{"FastAPI", regexp.MustCompile(`(?i)\bfastapi\b`)},
	{"Flask", regexp.MustCompile(`(?i)\bflask\b`)},
	{"Flutter", regexp.MustCompile(`(?i)\bflutter\b`)},
	{"GCP", regexp.MustCompile(`(?i)\bgcp\b|\bgoogle cloud\b`)},
	{"Go", regexp.MustCompile(`(?i)\bgolang\b|\bgo\b`)},
	{"GraphQL", regexp.MustCompile(`(?i)\bgraphql\b`)},
	{"Java", regexp.MustCompile(`(?i)\bjava\b`)},
	{"JavaScript", regexp.MustCompile(`(?i)\bjavascript\b|\bjs\b`)},
	{"Jenkins", regexp.MustCompile(`(?i)\bjenkins\b`)},
	{"Kafka", regexp.MustCompile(`(?i)\bkafka\b`)},
	{"Kotlin", regexp.MustCompile(`(?i)\bkotlin\b`)},
	{"Kubernetes", regexp.MustCompile(`(?i)\bkubernetes\b|\bk8s\b`)},
	{"Laravel", regexp.MustCompile(`(?i)\blaravel\b`)},
	{"MongoDB", regexp.MustCompile(`(?i)\bmongo(db)?\b`)},
	{"MySQL", regexp.MustCompile(`(?i)\bmysql\b|\bmariadb\b`)},
	{"Next.js", regexp.MustCompile(`(?i)\bnext\.?js\b`)},
	{"Node.js", regexp.MustCompile(`(?i)\bnode(\.?js)?\b`)},
	{".NET", regexp.MustCompile(`(?i)\.net\b|\bdotnet\b`)},
	{"PHP", regexp.MustCompile(`(?i)\bphp\b`)},
	{"PostgreSQL", regexp.MustCompile(`(?i)\bpostgres(ql)?\b`)},
	{"Python", regexp.MustCompile(`(?i)\bpython\b`)},
	{"Rails", regexp.MustCompile(`(?i)\brails\b|\bruby on rails\b`)},
	{"React", regexp.MustCompile(`(?i)\breact(\.?js)?\b`)},
	{"React Native", regexp.MustCompile(`(?i)\breact[ -]native\b`)},
	{"Redis", regexp.MustCompile(`(?i)\bredis\b`)},
	{"Ruby", regexp.MustCompile(`(?i)\bruby\b`)},
	{"Rust", regexp.MustCompile(`(?i)\brust\b`)},
	{"Scala", regexp.MustCompile(`(?i)\bscala\b`)},
	{"Spring", regexp.MustCompile(`(?i)\bspring\s?(boot)?\b`)},
	{"Svelte", regexp.MustCompile(`(?i)\bsvelte(kit)?\b`)},
	{"Swift", regexp.MustCompile(`(?i)\bswift\b`)},
	{"Symfony", regexp.MustCompile(`(?i)\bsymfony\b`)},
	{"Terraform", regexp.MustCompile(`(?i)\bterraform\b`)},
	{"TypeScript", regexp.MustCompile(`(?i)\btypescript\b|\bts\b`)},
	{"Vue", regexp.MustCompile(`(?i)\bvue(\.?js)?\b`)},
}

// Technologies pattern-matches free text against the fixed technology
// vocabulary and returns the canonical names of every match, deduplicated
// and sorted lexicographically. A name appears once no matter how many
// times it matches. The function is pure: identical input always yields an
// identical, sorted result.
func Technologies(text string) []string {
	if text == "" {
		return nil
	}

	var found []string
	for _, tp := range techPatterns {
		if tp.pattern.MatchString(text) {
			found = append(found, tp.name)
		}
	}
	sort.Strings(found)
	return found
}
