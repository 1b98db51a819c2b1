package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// articleColumns is the column list used for SELECT statements on the articles table.
const articleColumns = `id, title, authors, keywords, publisher, pmcid, link,
	abstract, sections, publication_date, images, image, pdf, restricted`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryListArticles(ctx context.Context, db executor) ([]*model.Article, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func queryGetArticle(ctx context.Context, db executor, id int) (*model.Article, error) {
	row := db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func queryGetArticleByPMCID(ctx context.Context, db executor, pmcid string) (*model.Article, error) {
	row := db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE pmcid = $1`, pmcid)
	return scanArticle(row)
}

// queryUpsertArticle inserts a, or updates the row sharing its PMCID. Rows
// without a PMCID are always inserted. xmax is zero only for a freshly
// inserted tuple.
func queryUpsertArticle(ctx context.Context, db executor, a *model.Article) (bool, error) {
	sections, err := sectionsBytes(a.Sections)
	if err != nil {
		return false, fmt.Errorf("encode sections: %w", err)
	}
	var created bool
	err = db.QueryRowContext(ctx, `
		INSERT INTO articles (
			title, authors, keywords, publisher, pmcid, link,
			abstract, sections, publication_date, images, image, pdf, restricted
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (pmcid) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			keywords = EXCLUDED.keywords,
			publisher = EXCLUDED.publisher,
			link = EXCLUDED.link,
			abstract = EXCLUDED.abstract,
			sections = EXCLUDED.sections,
			publication_date = EXCLUDED.publication_date,
			images = EXCLUDED.images,
			image = EXCLUDED.image,
			pdf = EXCLUDED.pdf,
			restricted = EXCLUDED.restricted,
			updated_at = now()
		RETURNING id, (xmax = 0)`,
		a.Title,
		pq.Array(nonNil(a.Authors)),
		pq.Array(nonNil(a.Keywords)),
		pq.Array(nonNil(a.Publisher)),
		nullString(a.Pmcid),
		nullString(a.Link),
		nullString(a.Abstract),
		sections,
		nullString(a.PublicationDate),
		pq.Array(nonNil(a.Images)),
		nullString(a.Image),
		nullString(a.Pdf),
		a.Restricted,
	).Scan(&a.ID, &created)
	if err != nil {
		return false, err
	}
	return created, nil
}

func queryDeleteArticle(ctx context.Context, db executor, id int) error {
	res, err := db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryCountArticles(ctx context.Context, db executor) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
