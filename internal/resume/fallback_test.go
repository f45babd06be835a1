package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackExtractDictionaryWordBoundaries(t *testing.T) {
	t.Parallel()

	text := "Built frontends with React and wrote services in JavaScript."

	content := fallbackExtract(text)

	assert.Contains(t, content.Keywords, "React")
	assert.Contains(t, content.Keywords, "Javascript")
	// "Java" appears only inside "JavaScript" and must not match.
	assert.NotContains(t, content.Keywords, "Java")
}

func TestFallbackExtractSkillSection(t *testing.T) {
	t.Parallel()

	text := "John Doe\n" +
		"WORK EXPERIENCE\n" +
		"Built a deployment pipeline at Acme for 3 years.\n" +
		"TECHNICAL SKILLS:\n" +
		"Go, Terraform; Ansible, x\n"

	content := fallbackExtract(text)

	assert.Contains(t, content.Keywords, "Go")
	assert.Contains(t, content.Keywords, "Terraform")
	assert.Contains(t, content.Keywords, "Ansible")
	// single characters are filtered out
	assert.NotContains(t, content.Keywords, "x")

	require.Len(t, content.Experience, 1)
	assert.Equal(t, "Extracted Section", content.Experience[0].Title)
	assert.Contains(t, content.Experience[0].Description, "deployment pipeline")
}

func TestFallbackExtractExperienceEstimate(t *testing.T) {
	t.Parallel()

	content := fallbackExtract("Engineer with 7 years of experience in Go.")
	assert.Equal(t, "7 Years", content.TotalExperience)

	content = fallbackExtract("Recent graduate looking for a first role.")
	assert.Equal(t, "Fresher (Estimated)", content.TotalExperience)
}

func TestFallbackExtractAlwaysWellFormed(t *testing.T) {
	t.Parallel()

	content := fallbackExtract("")

	require.NotNil(t, content.Skills)
	require.NotNil(t, content.Keywords)
	require.NotNil(t, content.Experience)
	assert.Empty(t, content.Experience)
	assert.Equal(t, "Fresher (Estimated)", content.TotalExperience)
}

func TestDedupeKeywords(t *testing.T) {
	t.Parallel()

	got := dedupeKeywords([]string{"React", "react", " Node.js ", "", "Node.js"}, 50)
	assert.Equal(t, []string{"React", "Node.js"}, got)

	capped := dedupeKeywords([]string{"a1", "b2", "c3"}, 2)
	assert.Len(t, capped, 2)
}
