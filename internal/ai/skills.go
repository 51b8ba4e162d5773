package ai

import (
	"math"
	"strings"
)

// skillVocabulary is scanned in order; the first match of a canonical label
// decides its position in the result.
var skillVocabulary = []string{
	"javascript", "typescript", "node.js", "node", "react", "reactjs", "angular", "vue",
	"python", "java", "c++", "c#", "golang", "rust", "php", "ruby",
	"sql", "mysql", "postgresql", "postgres", "mongodb", "redis",
	"aws", "azure", "gcp", "docker", "kubernetes", "git", "linux",
	"html", "css", "sass", "less",
}

var canonicalSkills = map[string]string{
	"node":       "Node.js",
	"node.js":    "Node.js",
	"react":      "React",
	"reactjs":    "React",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
}

// DefaultSkills is returned when no vocabulary term occurs in the text.
var DefaultSkills = []string{"JavaScript", "TypeScript", "Node.js", "PostgreSQL", "REST API"}

// ExtractSkills matches text case-insensitively against the skill vocabulary.
// The result is never empty.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	skills := make([]string, 0, 8)
	for _, term := range skillVocabulary {
		if !strings.Contains(lower, term) {
			continue
		}
		label := formatSkill(term)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		skills = append(skills, label)
	}
	if len(skills) == 0 {
		return append([]string(nil), DefaultSkills...)
	}
	return skills
}

func formatSkill(term string) string {
	if label, ok := canonicalSkills[term]; ok {
		return label
	}
	return strings.ToUpper(term[:1]) + term[1:]
}

// MatchScore returns the percentage of required skills present in the
// candidate's skills, compared case-insensitively. No requirements match fully.
func MatchScore(candidateSkills, requiredSkills []string) int {
	if len(requiredSkills) == 0 {
		return 100
	}
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		have[strings.ToLower(s)] = struct{}{}
	}
	matched := 0
	for _, s := range requiredSkills {
		if _, ok := have[strings.ToLower(s)]; ok {
			matched++
		}
	}
	return int(math.Round(100 * float64(matched) / float64(len(requiredSkills))))
}
