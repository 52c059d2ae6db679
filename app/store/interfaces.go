package store

type ArticleRepository interface {
	GetArticle(id string) (*Article, error)
	GetArticleCount() (int, error)

	SaveArticle(article *Article) error
	MarkUnitPosted(articleID, unitID string) error
}

type PostRepository interface {
	GetRecentPosts(limit int) ([]PostRecord, error)
	GetPostCount() (int, error)

	AppendPost(record PostRecord) error
}
