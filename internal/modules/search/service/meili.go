package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
)

type meiliSearcher struct {
	client meilisearch.ServiceManager
	index  string
	log    logger.Logger
}

type meiliPoemDoc struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
	PostDate string `json:"postDate"`
}

// NewMeiliSearcher searches the given Meilisearch index. Only title and
// author are searchable, matching the in-memory searcher.
func NewMeiliSearcher(client meilisearch.ServiceManager, index string, log logger.Logger) PoemSearcher {
	if index == "" {
		index = "poems"
	}
	s := &meiliSearcher{client: client, index: index, log: log}
	s.initIndex()
	return s
}

func (s *meiliSearcher) initIndex() {
	searchable := []string{"title", "author"}
	if _, err := s.client.Index(s.index).UpdateSearchableAttributes(&searchable); err != nil {
		s.log.Warn("failed to update searchable attributes", map[string]interface{}{"index": s.index, "error": err})
	}
}

func (s *meiliSearcher) Index(_ context.Context, poems []entity.Poem) error {
	if len(poems) == 0 {
		return nil
	}
	docs := make([]meiliPoemDoc, 0, len(poems))
	for _, p := range poems {
		docs = append(docs, meiliPoemDoc{
			ID:       p.ID,
			Title:    sanitize.Line(p.Title),
			Author:   sanitize.Line(p.Author),
			Text:     sanitize.Text(p.Text),
			ImageURL: p.ImageURL,
			PostDate: p.PostDate,
		})
	}

	task, err := s.client.Index(s.index).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index poems: %w", err)
	}
	s.log.Debug("poems queued for indexing", map[string]interface{}{"count": len(docs), "task_uid": task.TaskUID})
	return nil
}

func (s *meiliSearcher) Remove(_ context.Context, id int64) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.FormatInt(id, 10))
	return err
}

func (s *meiliSearcher) Search(_ context.Context, query string) ([]entity.Poem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	resp, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{Limit: 50})
	if err != nil {
		return nil, fmt.Errorf("search poems: %w", err)
	}
	return decodeHits(resp.Hits)
}

// decodeHits goes through JSON so it does not depend on how the client
// library represents a hit.
func decodeHits(hits interface{}) ([]entity.Poem, error) {
	raw, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}
	var docs []meiliPoemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}

	poems := make([]entity.Poem, 0, len(docs))
	for _, d := range docs {
		poems = append(poems, entity.Poem{
			ID:       d.ID,
			Title:    d.Title,
			Author:   d.Author,
			Text:     d.Text,
			ImageURL: d.ImageURL,
			PostDate: d.PostDate,
		})
	}
	return poems, nil
}

func strPtr(s string) *string {
	return &s
}
