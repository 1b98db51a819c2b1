package store

import (
	"context"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Store defines the persistence interface for catalogue articles.
type Store interface {
	ListArticles(ctx context.Context) ([]*model.Article, error)
	GetArticle(ctx context.Context, id int) (*model.Article, error)
	GetArticleByPMCID(ctx context.Context, pmcid string) (*model.Article, error)
	// UpsertArticle inserts the article, or updates the row with the same
	// PMCID. The assigned ID is written back into a.
	UpsertArticle(ctx context.Context, a *model.Article) (created bool, err error)
	DeleteArticle(ctx context.Context, id int) error
	CountArticles(ctx context.Context) (int, error)

	// Transactions
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
