package jobsearch

import "strings"

// Vocabulary is the ordered list of skill keywords used to infer required
// skills from a listing description when the provider supplies none.
type Vocabulary []string

// DefaultVocabulary covers the common skills worth surfacing across
// both technical and non-technical listings.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"Microsoft Office", "Excel", "Word", "PowerPoint",
		"Communication", "Leadership", "Teamwork",
		"JavaScript", "Python", "Java", "C++", "HTML", "CSS",
		"Marketing", "Social Media", "SEO", "Content Marketing",
		"Project Management", "Agile", "Scrum",
	}
}

// Infer returns the vocabulary entries mentioned in the description,
// matched case-insensitively, in vocabulary order.
func (v Vocabulary) Infer(description string) []string {
	found := []string{}
	if description == "" {
		return found
	}
	lower := strings.ToLower(description)
	for _, skill := range v {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}
