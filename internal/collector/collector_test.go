package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities(t *testing.T) {
	text := `Acme Labs was founded by Jane Smith in 2021. The company sells a
B2B SaaS subscription product and closed a Series A round last year.
Its main product competes with Globex Corp in the fintech space.`

	entities := ExtractEntities(text)

	companies, ok := entities["companies"].([]interface{})
	require.True(t, ok, "expected company names in %v", entities)
	assert.Contains(t, companies, "Acme")
	assert.Contains(t, companies, "Globex")

	founders, ok := entities["founders"].([]interface{})
	require.True(t, ok, "expected founder names in %v", entities)
	assert.Contains(t, founders, "Jane Smith")

	keywords, ok := entities["keywords"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, keywords, "saas")
	assert.Contains(t, keywords, "b2b")
	assert.Contains(t, keywords, "fintech")
	assert.Contains(t, keywords, "series a")
	assert.Contains(t, keywords, "subscription")
}

func TestExtractEntitiesEmptyText(t *testing.T) {
	entities := ExtractEntities("nothing interesting here")
	assert.NotContains(t, entities, "companies")
	assert.NotContains(t, entities, "founders")
}

func TestExtractEntitiesDeduplicates(t *testing.T) {
	text := "Acme Inc and acme INC and Acme Inc again. Founded by John Doe. CEO: John Doe."
	entities := ExtractEntities(text)

	companies := entities["companies"].([]interface{})
	assert.Len(t, companies, 1)

	founders := entities["founders"].([]interface{})
	assert.Len(t, founders, 1)
}

func TestCacheKeyNormalizesHint(t *testing.T) {
	assert.Equal(t, cacheKey("Acme Inc"), cacheKey("  acme inc  "))
	assert.NotEqual(t, cacheKey("Acme Inc"), cacheKey("Globex Corp"))
}
