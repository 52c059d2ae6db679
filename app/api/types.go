package api

import (
	"github.com/avdmnk/daypost/app/store"
)

type Handler struct {
	articles store.ArticleRepository
	posts    store.PostRepository
}
