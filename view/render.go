// Package view turns a resolved route and the current post collection into
// the data one of the three page templates needs.
package view

import (
	"html/template"

	"tasublog/domain"
	"tasublog/route"
	"tasublog/toc"
)

const loadNotice = "Error loading articles. Please refresh the page."

type Page struct {
	View        route.View
	Title       string
	Site        domain.Site
	Location    string
	Notice      string
	SidebarTags []string
	ActiveTag   string

	Home    *HomePage
	Article *ArticlePage
	Admin   *AdminPage
}

type Card struct {
	Title    string
	Subtitle string
	Date     string
	Path     string
	Image    string
	Tags     []string
}

type HomePage struct {
	Query string
	Cards []Card
	// Empty asks for the "No Articles Yet" call to action. It is never
	// set when the collection could not be loaded.
	Empty bool
}

type ArticlePage struct {
	Title    string
	Subtitle string
	Date     string
	Image    string
	Tags     []string
	Body     template.HTML
	TOC      []toc.Entry
}

type AdminItem struct {
	ID    string
	Title string
	Path  string
}

type Chip struct {
	Tag      string
	Selected bool
}

// Form is the create/edit form. A non-empty ID means edit mode.
type Form struct {
	ID       string
	Title    string
	Subtitle string
	Content  string
	TagsText string
	Image    string
}

func (f Form) Editing() bool { return f.ID != "" }

func (f Form) Heading() string {
	if f.Editing() {
		return "Edit Article"
	}
	return "Create New Article"
}

func (f Form) SubmitLabel() string {
	if f.Editing() {
		return "Update Article"
	}
	return "Publish Article"
}

type AdminPage struct {
	Locked    bool
	GateError string
	Posts     []AdminItem
	Form      Form
	Chips     []Chip
	Confirm   *AdminItem
}

// Context is everything besides the route that a page depends on.
type Context struct {
	Site       domain.Site
	Location   string
	Posts      []domain.Post
	LoadFailed bool
	Notice     string
	Markdown   Markdown

	// home
	Query string
	Tag   string

	// admin
	Unlocked  bool
	GateError string
	EditID    string
	DeleteID  string
	// Form and Selection carry values back after a rejected submit.
	Form      *Form
	Selection *domain.Selection
}

// Render builds the page for rt. It has no side effects.
func Render(rt route.Route, c Context) Page {
	page := Page{
		View:        rt.View,
		Site:        c.Site,
		Location:    c.Location,
		Notice:      c.Notice,
		SidebarTags: domain.AllTags(c.Posts),
		ActiveTag:   c.Tag,
	}
	if c.LoadFailed && page.Notice == "" {
		page.Notice = loadNotice
	}

	switch rt.View {
	case route.Article:
		if rt.Post != nil {
			page.Article = renderArticle(*rt.Post, c.Markdown)
			page.Title = rt.Post.Title + " | " + c.Site.Title
			return page
		}
		// an article route without a post is treated like any other
		// unresolvable route
		page.View = route.Home
	case route.Admin:
		page.Admin = renderAdmin(c)
		page.Title = "Admin | " + c.Site.Title
		return page
	}

	page.View = route.Home
	page.Title = c.Site.Title
	page.Home = renderHome(c)
	return page
}

func renderHome(c Context) *HomePage {
	posts := c.Posts
	if c.Tag != "" {
		posts = domain.Filter(posts, c.Tag)
	}
	posts = domain.Filter(posts, c.Query)

	home := &HomePage{Query: c.Query, Cards: make([]Card, 0, len(posts))}
	for _, p := range posts {
		home.Cards = append(home.Cards, Card{
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Date:     p.Date,
			Path:     route.ArticlePath(p),
			Image:    p.Image,
			Tags:     p.Tags,
		})
	}
	home.Empty = len(home.Cards) == 0 && !c.LoadFailed
	return home
}

func renderArticle(p domain.Post, md Markdown) *ArticlePage {
	if md == nil {
		md = Plain{}
	}
	body := md.HTML(p.Content)
	annotated, entries, err := toc.Generate(body)
	if err == nil {
		body = annotated
	}
	return &ArticlePage{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Date:     p.Date,
		Image:    p.Image,
		Tags:     p.Tags,
		Body:     template.HTML(body),
		TOC:      entries,
	}
}

func renderAdmin(c Context) *AdminPage {
	if !c.Unlocked {
		return &AdminPage{Locked: true, GateError: c.GateError}
	}

	admin := &AdminPage{Posts: make([]AdminItem, 0, len(c.Posts))}
	for _, p := range c.Posts {
		admin.Posts = append(admin.Posts, AdminItem{ID: p.ID, Title: p.Title, Path: route.ArticlePath(p)})
	}

	sel := c.Selection
	switch {
	case c.Form != nil:
		admin.Form = *c.Form
	case c.EditID != "":
		if p, ok := byID(c.Posts, c.EditID); ok {
			admin.Form = Form{ID: p.ID, Title: p.Title, Subtitle: p.Subtitle, Content: p.Content, Image: p.Image}
			if sel == nil {
				sel = domain.NewSelection(p.Tags...)
			}
		}
	}
	if sel == nil {
		sel = domain.NewSelection()
	}
	for _, tag := range domain.AllTags(c.Posts) {
		admin.Chips = append(admin.Chips, Chip{Tag: tag, Selected: sel.Has(tag)})
	}

	if c.DeleteID != "" {
		if p, ok := byID(c.Posts, c.DeleteID); ok {
			admin.Confirm = &AdminItem{ID: p.ID, Title: p.Title, Path: route.ArticlePath(p)}
		}
	}
	return admin
}

func byID(posts []domain.Post, id string) (domain.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

// ErrorView is the template region used for HTTP errors.
const ErrorView route.View = "error"

func ErrorPage(site domain.Site, title string) Page {
	return Page{View: ErrorView, Title: title, Site: site}
}
