package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanArticle scans a single row into a model.Article.
// The row must contain columns in the order defined by articleColumns.
func scanArticle(row scannable) (*model.Article, error) {
	var a model.Article
	var (
		pmcid    sql.NullString
		link     sql.NullString
		abstract sql.NullString
		sections []byte
		pubDate  sql.NullString
		image    sql.NullString
		pdf      sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.Title,
		pq.Array(&a.Authors),
		pq.Array(&a.Keywords),
		pq.Array(&a.Publisher),
		&pmcid,
		&link,
		&abstract,
		&sections,
		&pubDate,
		pq.Array(&a.Images),
		&image,
		&pdf,
		&a.Restricted,
	)
	if err != nil {
		return nil, err
	}

	a.Pmcid = pmcid.String
	a.Link = link.String
	a.Abstract = abstract.String
	a.PublicationDate = pubDate.String
	a.Image = image.String
	a.Pdf = pdf.String

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &a.Sections); err != nil {
			return nil, fmt.Errorf("decode sections for article %d: %w", a.ID, err)
		}
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]*model.Article, error) {
	var articles []*model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// sectionsBytes encodes sections for the JSONB column; no sections is null.
func sectionsBytes(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// nonNil keeps NOT NULL array columns from receiving a SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
