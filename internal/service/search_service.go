package service

import (
	"context"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/es"
)

// SearchService runs full-text queries over extracted content.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error)
}

type searchService struct {
	cfg config.ElasticsearchConfig
}

// NewSearchService creates the content search service.
func NewSearchService(cfg config.ElasticsearchConfig) SearchService {
	return &searchService{cfg: cfg}
}

func (s *searchService) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	if query == "" {
		return nil, errs.Validationf("search query is required")
	}
	return es.SearchContent(ctx, s.cfg.IndexName, query, limit)
}
