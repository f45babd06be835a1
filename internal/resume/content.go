package resume

import "strings"

// Contact holds the identifying fields the extractor found in the document.
type Contact struct {
	Name  string `json:"name,omitempty" mapstructure:"name"`
	Email string `json:"email,omitempty" mapstructure:"email"`
	Phone string `json:"phone,omitempty" mapstructure:"phone"`
}

// ExperienceEntry is a single position or project from the resume.
type ExperienceEntry struct {
	Title        string `json:"title,omitempty" mapstructure:"title"`
	Organization string `json:"company,omitempty" mapstructure:"company"`
	Dates        string `json:"dates,omitempty" mapstructure:"dates"`
	Description  string `json:"description,omitempty" mapstructure:"description"`
}

// ProfileContent is the structured signal extracted from one resume. Every
// field is always populated: slices are non-nil and the experience label is
// set even when nothing was found.
type ProfileContent struct {
	Contact         Contact           `json:"contact"`
	Skills          []string          `json:"skills"`
	Experience      []ExperienceEntry `json:"experience"`
	TotalExperience string            `json:"totalExperience"`
	Keywords        []string          `json:"keywords"`
	RawText         string            `json:"rawText"`
}

const entryLevelLabel = "Fresher (Estimated)"

// normalize fills the defaults the rest of the pipeline relies on.
func (c *ProfileContent) normalize() {
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if c.Experience == nil {
		c.Experience = []ExperienceEntry{}
	}
	if strings.TrimSpace(c.TotalExperience) == "" {
		c.TotalExperience = entryLevelLabel
	}
}

// dedupeKeywords removes duplicates case-insensitively while preserving the
// display form of the first occurrence, capped at limit entries.
func dedupeKeywords(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
