package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"tasublog/route"
)

const feedSize = 20

func (h *Handler) Feed(c echo.Context) error {
	feed := &feeds.Feed{
		Title:       h.Site.Title,
		Link:        &feeds.Link{Href: h.Site.URL},
		Description: h.Site.Description,
		Created:     time.Now(),
	}

	posts := h.Posts.Snapshot()
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}
	for _, p := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.ID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: h.Site.URL + route.ArticlePath(p)},
			Description: p.Subtitle,
			Created:     p.CreatedAt,
			Content:     h.Markdown.HTML(p.Content),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
