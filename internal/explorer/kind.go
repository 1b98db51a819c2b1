package explorer

// Kind classifies a node. It is decided once, when the node is built, and
// drives click dispatch and styling.
type Kind uint8

const (
	KindArticle Kind = iota
	KindAuthor
	KindKeyword
	KindMoreRoot
	KindMoreArticle
)

// Renderer groups. Both sentinel kinds share the "more" group.
const (
	GroupArticle = "article"
	GroupAuthor  = "author"
	GroupKeyword = "keyword"
	GroupMore    = "more"
)

func (k Kind) String() string {
	switch k {
	case KindArticle:
		return "article"
	case KindAuthor:
		return "author"
	case KindKeyword:
		return "keyword"
	case KindMoreRoot:
		return "more_root"
	case KindMoreArticle:
		return "more_article"
	}
	return "unknown"
}

// Group returns the renderer group for the kind.
func (k Kind) Group() string {
	switch k {
	case KindAuthor:
		return GroupAuthor
	case KindKeyword:
		return GroupKeyword
	case KindMoreRoot, KindMoreArticle:
		return GroupMore
	}
	return GroupArticle
}

// IsSentinel reports whether the kind is one of the synthetic "+N more" kinds.
func (k Kind) IsSentinel() bool {
	return k == KindMoreRoot || k == KindMoreArticle
}
