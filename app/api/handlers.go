package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/store"
)

// Article publication states as exposed by the status API
const (
	stateNew        = "new"
	stateInProgress = "in_progress"
	stateComplete   = "complete"
)

func NewHandler(articles store.ArticleRepository, posts store.PostRepository) *Handler {
	return &Handler{
		articles: articles,
		posts:    posts,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.articles.GetArticleCount(); err == nil {
		health["articles"] = articleCount
	}
	if postCount, err := h.posts.GetPostCount(); err == nil {
		health["posts"] = postCount
	}

	c.JSON(http.StatusOK, health)
}

// GetStats reports the publication state of today's article
func (h *Handler) GetStats(c *gin.Context) {
	articleID := store.ArticleIDForDate(time.Now())

	article, err := h.articles.GetArticle(articleID)
	if err != nil {
		slog.Error("Store error", "operation", "get_article", "article", articleID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	stats := map[string]interface{}{
		"date":  articleID,
		"state": stateNew,
	}

	if article != nil {
		total := 0
		posted := 0
		for _, unit := range article.Units {
			if unit.Kind == string(digest.UnitTodayText) {
				continue
			}
			total++
			if unit.Posted {
				posted++
			}
		}

		state := stateInProgress
		if posted == total {
			state = stateComplete
		}

		stats["state"] = state
		stats["url"] = article.URL
		stats["units_total"] = total
		stats["units_posted"] = posted
	}

	if postCount, err := h.posts.GetPostCount(); err == nil {
		stats["posts_published"] = postCount
	}

	c.JSON(http.StatusOK, stats)
}

// GetPosts returns the most recent post records, newest first
func (h *Handler) GetPosts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = parsed
	}

	posts, err := h.posts.GetRecentPosts(limit)
	if err != nil {
		slog.Error("Store error", "operation", "get_posts", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}
