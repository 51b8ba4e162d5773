package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSkillsCanonicalizesSynonyms(t *testing.T) {
	skills := ExtractSkills("Built dashboards with ReactJS, React Native and Postgres; services in Node and node.js")

	assert.Equal(t, []string{"Node.js", "React", "PostgreSQL"}, skills)
}

func TestExtractSkillsKeepsVocabularyOrder(t *testing.T) {
	skills := ExtractSkills("docker, python, and a little Golang")

	assert.Equal(t, []string{"Python", "Golang", "Docker"}, skills)
}

func TestExtractSkillsEndToEndPhrase(t *testing.T) {
	skills := ExtractSkills("React and PostgreSQL experience")

	assert.Contains(t, skills, "React")
	assert.Contains(t, skills, "PostgreSQL")
}

func TestExtractSkillsDefaultsWhenNothingMatches(t *testing.T) {
	skills := ExtractSkills("Shepherd, beekeeper, amateur astronomer")

	assert.Equal(t, DefaultSkills, skills)

	// The default set must be a copy.
	skills[0] = "mutated"
	assert.Equal(t, "JavaScript", DefaultSkills[0])
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate []string
		required  []string
		want      int
	}{
		{name: "no requirements", candidate: nil, required: nil, want: 100},
		{name: "case insensitive", candidate: []string{"react", "GO"}, required: []string{"React", "go"}, want: 100},
		{name: "one of three", candidate: []string{"Python"}, required: []string{"python", "java", "sql"}, want: 33},
		{name: "two of three rounds up", candidate: []string{"python", "java"}, required: []string{"python", "java", "sql"}, want: 67},
		{name: "none", candidate: []string{"rust"}, required: []string{"php"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchScore(tt.candidate, tt.required))
		})
	}
}
