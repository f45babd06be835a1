package resume

import (
	"regexp"
	"strings"

	"jobpilot/internal/util"
)

// Header synonyms for the sections the fallback extractor scans for.
var (
	skillHeaders = []string{
		"SKILLS", "TECHNICAL SKILLS", "CORE COMPETENCIES", "TECHNOLOGIES",
		"TOOLS", "PROGRAMMING LANGUAGES", "STRENGTHS", "TECH STACK",
		"EXPERTISE", "SKILLSET", "PROFICIENCIES", "KEY SKILLS",
	}
	experienceHeaders = []string{
		"EXPERIENCE", "WORK HISTORY", "EMPLOYMENT", "WORK EXPERIENCE",
		"PROFESSIONAL EXPERIENCE", "PROJECTS", "CAREER SUMMARY",
	}
)

// techDictionary catches common technology terms even when section detection
// fails. Matching is word-bounded so "Java" does not hit inside "JavaScript".
var techDictionary = []string{
	"Javascript", "React", "Node.js", "MongoDB", "Express", "Python", "Java", "C++", "PHP",
	"HTML", "CSS", "Tailwind", "Bootstrap", "Redux", "SQL", "PostgreSQL", "AWS", "Docker",
	"Kubernetes", "Firebase", "TypeScript", "Angular", "Vue", "Next.js", "Figma", "Postman",
	"Git", "GitHub", "Agile", "DevOps", "QA", "MERN", "MEAN", "REST API", "GraphQL", "Swift",
	"Android", "iOS", "Flutter", "React Native",
}

var techPatterns = compileDictionary(techDictionary)

func compileDictionary(terms []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(terms))
	for _, term := range terms {
		patterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return patterns
}

var (
	tokenSplitter   = regexp.MustCompile("[,;\n|•]+")
	yearsPattern    = regexp.MustCompile(`(?i)(\d+|\w+)\+?\s+years?\s+of\s+experience`)
	allCapsLine     = regexp.MustCompile(`^[A-Z\s]+$`)
	maxKeywords     = 50
	maxSectionChars = 2000
)

// fallbackExtract builds a ProfileContent from raw text without any AI help.
func fallbackExtract(rawText string) *ProfileContent {
	var found []string

	if section := extractSection(rawText, skillHeaders); section != "" {
		for _, token := range tokenSplitter.Split(section, -1) {
			token = strings.TrimSpace(token)
			if len(token) > 1 && len(token) < 40 {
				found = append(found, token)
			}
		}
	}

	for _, term := range techDictionary {
		if techPatterns[term].MatchString(rawText) {
			found = append(found, term)
		}
	}

	keywords := dedupeKeywords(found, maxKeywords)

	experience := []ExperienceEntry{}
	if section := extractSection(rawText, experienceHeaders); section != "" {
		description := util.Truncate(section, maxSectionChars)
		experience = append(experience, ExperienceEntry{
			Title:        "Extracted Section",
			Organization: "Analysed from Document",
			Dates:        "Found in Experience Section",
			Description:  description,
		})
	}

	content := &ProfileContent{
		RawText:         rawText,
		Skills:          keywords,
		Keywords:        keywords,
		Experience:      experience,
		TotalExperience: estimateExperience(rawText),
	}
	content.normalize()
	return content
}

func estimateExperience(text string) string {
	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " Years"
	}
	return entryLevelLabel
}

// extractSection scans line by line for one of the header synonyms and
// accumulates the following lines until the next plausible all-caps header.
func extractSection(text string, headers []string) string {
	lines := strings.Split(text, "\n")
	var content strings.Builder
	found := false

	for _, raw := range lines {
		line := strings.ToUpper(strings.TrimSpace(raw))

		if isSectionHeader(line, headers) {
			found = true
			continue
		}
		if !found {
			continue
		}

		// Stop at the next short all-caps line that looks like a header of
		// the same family.
		if len(line) > 2 && len(line) < 25 && allCapsLine.MatchString(line) && containsAnyHeader(line, headers) {
			break
		}

		content.WriteString(raw)
		content.WriteString(" ")
	}

	if !found {
		return ""
	}
	return strings.TrimSpace(content.String())
}

func isSectionHeader(line string, headers []string) bool {
	for _, h := range headers {
		if line == h || strings.HasPrefix(line, h+":") || strings.HasPrefix(line, h+" ") {
			return true
		}
	}
	return false
}

func containsAnyHeader(line string, headers []string) bool {
	for _, h := range headers {
		if strings.Contains(line, h) {
			return true
		}
	}
	return false
}
