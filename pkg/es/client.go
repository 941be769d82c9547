// Package es provides the Elasticsearch client used for full-text search
// over extracted content.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES initializes the Elasticsearch client and ensures the index exists.
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("failed to check index existence: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("unexpected status code while checking index '%s': %d", indexName, res.StatusCode)
		return fmt.Errorf("unexpected status code while checking index: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"file_id": { "type": "keyword" },
				"content_hash": { "type": "keyword" },
				"media_kind": { "type": "keyword" },
				"title": { "type": "text" },
				"unified_text": { "type": "text" },
				"extraction_method": { "type": "keyword" },
				"confidence_score": { "type": "float" }
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)

	if err != nil {
		log.Errorf("failed to create index '%s': %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("Elasticsearch returned an error creating index '%s': %s", indexName, res.String())
		return errors.New("elasticsearch returned an error while creating index")
	}

	log.Infof("index '%s' created successfully", indexName)
	return nil
}

// IndexContent indexes the unified text of one extracted file, keyed by its
// file id so reprocessing overwrites the previous document.
func IndexContent(ctx context.Context, indexName string, doc model.ContentDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.FileID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("failed to index content document: %s", res.String())
		return errors.New("failed to index document")
	}

	return nil
}

// SearchContent runs a full-text match query over unified_text and title.
func SearchContent(ctx context.Context, indexName, query string, limit int) ([]model.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"unified_text", "title^2"},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"unified_text": map[string]interface{}{},
			},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search returned an error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score     float64               `json:"_score"`
				Source    model.ContentDocument `json:"_source"`
				Highlight struct {
					UnifiedText []string `json:"unified_text"`
				} `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		snippet := ""
		if len(h.Highlight.UnifiedText) > 0 {
			snippet = h.Highlight.UnifiedText[0]
		}
		hits = append(hits, model.SearchHit{
			FileID:    h.Source.FileID,
			Title:     h.Source.Title,
			MediaKind: h.Source.MediaKind,
			Snippet:   snippet,
			Score:     h.Score,
		})
	}
	return hits, nil
}
