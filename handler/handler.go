package handler

import (
	"sync"

	"go.uber.org/zap"

	"tasublog/domain"
	"tasublog/store"
	"tasublog/view"
)

type Handler struct {
	Posts        *store.PostStore
	Markdown     view.Markdown
	Site         domain.Site
	JWTSecret    string
	PasswordHash []byte
	Environment  string
	Log          *zap.Logger

	mu     sync.Mutex
	notice string
}

// Announce queues a notice for the next rendered page, e.g. the outcome of
// the startup migration.
func (h *Handler) Announce(notice string) {
	h.mu.Lock()
	h.notice = notice
	h.mu.Unlock()
}

func (h *Handler) takeNotice() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.notice
	h.notice = ""
	return n
}
