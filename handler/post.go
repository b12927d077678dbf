package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tasublog/domain"
	"tasublog/route"
	"tasublog/store"
	"tasublog/view"
)

// Page resolves the request path like the address bar of the single-page
// blog and renders the matching view. Unknown paths show Home.
func (h *Handler) Page(c echo.Context) error {
	location := c.Request().URL.Path
	rt := route.Resolve(location, h.Posts.Find)
	page := view.Render(rt, h.context(c, location, func(vc *view.Context) {
		vc.Query = c.QueryParam("q")
		vc.Tag = c.QueryParam("tag")
		vc.EditID = c.QueryParam("edit")
		vc.DeleteID = c.QueryParam("delete")
	}))
	return c.Render(http.StatusOK, page.Name(), page)
}

// SavePost updates the post named by the hidden id field, or creates one
// when it is empty. Chips and typed tags are merged.
func (h *Handler) SavePost(c echo.Context) error {
	form := view.Form{
		ID:       c.FormValue("id"),
		Title:    c.FormValue("title"),
		Subtitle: c.FormValue("subtitle"),
		Content:  c.FormValue("content"),
		TagsText: c.FormValue("tags"),
		Image:    c.FormValue("image"),
	}
	params, err := c.FormParams()
	if err != nil {
		return err
	}
	sel := domain.NewSelection()
	for _, chip := range params["chip"] {
		sel.Toggle(chip)
	}
	draft := domain.Draft{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Content:  form.Content,
		Tags:     sel.Union(form.TagsText),
		Image:    form.Image,
	}

	ctx := c.Request().Context()
	if form.ID != "" {
		_, err = h.Posts.Update(ctx, form.ID, draft)
	} else {
		_, err = h.Posts.Create(ctx, draft)
	}
	if err != nil {
		h.Log.Warn("error saving article", zap.String("id", form.ID), zap.Error(err))
		page := view.Render(route.Route{View: route.Admin}, h.context(c, route.AdminPath, func(vc *view.Context) {
			vc.Notice = store.Notice(err)
			vc.Form = &form
			vc.Selection = sel
		}))
		return c.Render(http.StatusOK, page.Name(), page)
	}
	return c.Redirect(http.StatusFound, route.AdminPath)
}

// DeletePost removes a post once the confirmation field is present;
// without it the visitor is sent to the confirmation prompt.
func (h *Handler) DeletePost(c echo.Context) error {
	id := c.Param("id")
	if c.FormValue("confirm") != "yes" {
		return c.Redirect(http.StatusFound, route.AdminPath+"?delete="+url.QueryEscape(id))
	}
	if err := h.Posts.Delete(c.Request().Context(), id); err != nil {
		h.Log.Warn("error deleting article", zap.String("id", id), zap.Error(err))
		page := view.Render(route.Route{View: route.Admin}, h.context(c, route.AdminPath, func(vc *view.Context) {
			vc.Notice = store.Notice(err)
		}))
		return c.Render(http.StatusOK, page.Name(), page)
	}
	return c.Redirect(http.StatusFound, route.AdminPath)
}

func (h *Handler) context(c echo.Context, location string, with func(*view.Context)) view.Context {
	vc := view.Context{
		Site:       h.Site,
		Location:   location,
		Posts:      h.Posts.Snapshot(),
		LoadFailed: h.Posts.LoadFailed(),
		Markdown:   h.Markdown,
		Unlocked:   h.isUnlocked(c),
		Notice:     h.takeNotice(),
	}
	if with != nil {
		with(&vc)
	}
	return vc
}
