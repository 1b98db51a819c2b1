package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// FormatVersion is written into every export header.
const FormatVersion = "1"

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	ArticleCount int       `json:"article_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes every article in the store as JSONL to w, sorted by ID.
// It returns the number of articles written.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) (int, error) {
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list articles: %w", err)
	}
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].ID < articles[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      FormatVersion,
		Type:         "header",
		Timestamp:    time.Now().UTC(),
		ArticleCount: len(articles),
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	for _, a := range articles {
		data, err := json.Marshal(a)
		if err != nil {
			return 0, fmt.Errorf("encode article %d: %w", a.ID, err)
		}
		if err := enc.Encode(record{Type: "article", Data: data}); err != nil {
			return 0, fmt.Errorf("encode article %d: %w", a.ID, err)
		}
	}
	return len(articles), nil
}

// ReadJSONL parses an export written by ExportJSONL. Records of unknown type
// are skipped; a header with a different version is an error.
func ReadJSONL(r io.Reader) ([]*model.Article, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []*model.Article
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var probe struct {
			Type    string          `json:"type"`
			Version string          `json:"version"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch probe.Type {
		case "header":
			if probe.Version != FormatVersion {
				return nil, fmt.Errorf("line %d: unsupported export version %q", line, probe.Version)
			}
		case "article":
			var a model.Article
			if err := json.Unmarshal(probe.Data, &a); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			out = append(out, &a)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return out, nil
}
