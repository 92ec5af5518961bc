package detect

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTechnologies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single match",
			text: "We are looking for a Python developer",
			want: []string{"Python"},
		},
		{
			name: "multiple matches sorted",
			text: "TypeScript and React on top of PostgreSQL, deployed with Docker",
			want: []string{"Docker", "PostgreSQL", "React", "TypeScript"},
		},
		{
			name: "case insensitive",
			text: "KUBERNETES and golang experience required",
			want: []string{"Go", "Kubernetes"},
		},
		{
			name: "repeated mention contributes once",
			text: "Rust, more Rust, and even more rust",
			want: []string{"Rust"},
		},
		{
			name: "word boundaries respected",
			text: "category gourmet", // neither Go nor R-style fragments
			want: nil,
		},
		{
			name: "symbols in names",
			text: "C++ or C# backend, maybe .NET",
			want: []string{".NET", "C#", "C++"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Technologies(tt.text))
		})
	}
}

func TestTechnologiesDeterministic(t *testing.T) {
	text := "Vue, Angular, React, Svelte, jQuery soup with Node.js and Redis"

	first := Technologies(text)
	assert.True(t, sort.StringsAreSorted(first), "result must be sorted")

	// Idempotent: repeated invocations yield identical output.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Technologies(text))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "developpeur confirme", Normalize("Développeur Confirmé"))
	assert.Equal(t, "saint-denis, la reunion", Normalize("Saint-Denis, La Réunion"))
	assert.Equal(t, "plain ascii", Normalize("Plain ASCII"))
}
