// Package types provides type definitions for structured data used throughout the cvmatch system.
package types

// ResumeProfile is the structured analysis of a candidate's CV, produced
// once per pipeline run by the reasoning service and immutable afterward.
type ResumeProfile struct {
	Skills          []string          `json:"skills"`
	TechnicalSkills []string          `json:"technical_skills"`
	SoftSkills      []string          `json:"soft_skills"`
	Experience      []ExperienceEntry `json:"experience"`
	Education       []EducationEntry  `json:"education"`
	Languages       []string          `json:"languages"`
	Certifications  []string          `json:"certifications"`
}

// ExperienceEntry is one employment entry extracted from the CV.
type ExperienceEntry struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Duration         string   `json:"duration"`
	Responsibilities []string `json:"description"`
}

// EducationEntry is one education entry extracted from the CV.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}
