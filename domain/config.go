package domain

// Site describes the blog itself: shown in the page header and the feed.
type Site struct {
	Title       string
	Description string
	URL         string
}
