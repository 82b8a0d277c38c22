package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// TitleNotFound is the sentinel title used when no title can be extracted
	TitleNotFound = "title not found"

	// DescriptionPlaceholder is used when the page carries no meta description
	DescriptionPlaceholder = "No description"

	// DefaultMediaHost is the hostname fragment of Mercari's image CDN
	DefaultMediaHost = "mercdn.net"
)

// Mode selects how a page is fetched
type Mode string

const (
	// ModeStatic issues a single HTTP GET
	ModeStatic Mode = "static"
	// ModeRendered renders the page in a disposable headless browser
	ModeRendered Mode = "rendered"
)

// ListingSnapshot is the structured extraction result for one listing
type ListingSnapshot struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Images      []string `json:"images"`
}

// Fetcher retrieves the HTML of a listing page
type Fetcher interface {
	// Fetch returns the raw HTML of url using the given mode
	Fetch(ctx context.Context, url string, mode Mode) (string, error)
}

// Renderer acquires disposable browser sessions
type Renderer interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is a single isolated browser instance
type Session interface {
	// Render navigates to url, waits for settle and returns the rendered DOM
	Render(ctx context.Context, url string, settle time.Duration) (string, error)

	// Release tears the browser down
	Release() error
}

// ElementHandler extracts a raw string value from a document
type ElementHandler func(*goquery.Document) string

// Selectors contains CSS selectors for the listing page
type Selectors struct {
	Title       string
	Description string
	Price       string
	PriceText   string
	Image       string
}

// DefaultSelectors returns the selectors of a Mercari item page
func DefaultSelectors() Selectors {
	return Selectors{
		Title:       `[data-testid="name"] h1, h1[data-testid="name"]`,
		Description: `meta[name="description"]`,
		Price:       `[data-testid="price"]`,
		PriceText:   "span",
		Image:       "img",
	}
}
