// Package collector gathers optional public-signal context for an uploaded
// file. Collection is best effort: any failure degrades to "no signals" and
// never blocks the extraction pipeline.
package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/go-redis/redis/v8"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Collector enriches extracted content with external signals keyed by the
// founder-supplied context hint.
type Collector interface {
	Collect(ctx context.Context, hint, content string) (model.JSONMap, error)
}

var (
	companyPattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&.-]*(?:\s+[A-Z][A-Za-z0-9&.-]*){0,2})\s+(?:Inc|LLC|Ltd|Corp|GmbH|Labs|Technologies|Systems)\b`)
	founderPattern = regexp.MustCompile(`\b(?:[Ff]ounded by|[Ff]ounders?[:,]?|CEO[:,]?)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})`)

	businessKeywords = []string{
		"saas", "b2b", "b2c", "marketplace", "fintech", "healthtech",
		"edtech", "ai", "machine learning", "blockchain", "subscription",
		"revenue", "arr", "mrr", "seed", "series a", "series b",
	}

	keywordPatterns = func() map[string]*regexp.Regexp {
		patterns := make(map[string]*regexp.Regexp, len(businessKeywords))
		for _, kw := range businessKeywords {
			patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		return patterns
	}()
)

// ExtractEntities pulls likely company names, founder names and business
// keywords out of raw text without any network call. Used both to seed the
// research prompt and as the degraded result when the model is unreachable.
func ExtractEntities(text string) model.JSONMap {
	entities := model.JSONMap{}

	companies := dedupeMatches(companyPattern.FindAllStringSubmatch(text, 5))
	if len(companies) > 0 {
		entities["companies"] = companies
	}

	founders := dedupeMatches(founderPattern.FindAllStringSubmatch(text, 5))
	if len(founders) > 0 {
		entities["founders"] = founders
	}

	lower := strings.ToLower(text)
	var keywords []interface{}
	for _, kw := range businessKeywords {
		// Word-boundary match so short keywords like "ai" do not hit inside
		// unrelated words.
		if keywordPatterns[kw].MatchString(lower) {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) > 0 {
		entities["keywords"] = keywords
	}

	return entities
}

func dedupeMatches(matches [][]string) []interface{} {
	seen := make(map[string]bool)
	var out []interface{}
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		name := strings.TrimSpace(m[1])
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// GeminiCollector asks a generative model for public-signal research and
// caches results in Redis keyed by the context hint, so re-uploads of
// material about the same company do not repeat the research.
type GeminiCollector struct {
	client *genai.Client
	model  string
	rdb    *redis.Client
	ttl    time.Duration
}

// NewGeminiCollector builds the collector. Returns ErrCollectorUnavailable
// when no API key is configured so callers can skip collection cleanly.
func NewGeminiCollector(ctx context.Context, cfg config.CollectorConfig, rdb *redis.Client) (*GeminiCollector, error) {
	if cfg.APIKey == "" {
		return nil, errs.ErrCollectorUnavailable
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative model client: %w", err)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeminiCollector{client: client, model: cfg.Model, rdb: rdb, ttl: ttl}, nil
}

func cacheKey(hint string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(hint))))
	return "collector:" + hex.EncodeToString(sum[:])[:32]
}

// Collect returns external signals for the hinted company. Cached results
// are returned verbatim; on any model failure the locally extracted
// entities are returned instead so the pipeline still gets something.
func (c *GeminiCollector) Collect(ctx context.Context, hint, content string) (model.JSONMap, error) {
	if strings.TrimSpace(hint) == "" {
		return nil, nil
	}

	key := cacheKey(hint)
	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var signals model.JSONMap
		if err := json.Unmarshal([]byte(cached), &signals); err == nil {
			log.Infof("[Collector] cache hit for hint %q", hint)
			return signals, nil
		}
	}

	entities := ExtractEntities(content)

	signals, err := c.research(ctx, hint, entities)
	if err != nil {
		log.Warnf("[Collector] research failed for hint %q, degrading to local entities: %v", hint, err)
		signals = entities
	}
	if signals == nil {
		signals = model.JSONMap{}
	}
	signals["context_hint"] = hint
	signals["collected_at"] = time.Now().UTC().Format(time.RFC3339)

	if raw, err := json.Marshal(signals); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warnf("[Collector] failed to cache signals: %v", err)
		}
	}
	return signals, nil
}

func (c *GeminiCollector) research(ctx context.Context, hint string, entities model.JSONMap) (model.JSONMap, error) {
	gm := c.client.GenerativeModel(c.model)

	entityJSON, _ := json.Marshal(entities)
	prompt := fmt.Sprintf(`You are a startup research assistant. Based on the context
"%s" and these entities extracted from founder materials: %s

Return a single JSON object with these keys where information is available:
"industry", "competitors" (array), "market_size", "recent_news" (array),
"funding_signals" (array). Return only the JSON object, no prose.`, hint, string(entityJSON))

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	raw := strings.TrimSpace(b.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var signals model.JSONMap
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &signals); err != nil {
		return nil, fmt.Errorf("model returned unparseable JSON: %w", err)
	}
	return signals, nil
}

// Close releases the underlying model client.
func (c *GeminiCollector) Close() error {
	return c.client.Close()
}
