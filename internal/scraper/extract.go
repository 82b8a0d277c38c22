package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/monoko6666/mercari-ebay/helpers"
	"github.com/monoko6666/mercari-ebay/logger"
)

var (
	titleSeparators = []string{" - ", " | "}
	brandingMarks   = []string{"by メルカリ", "by Mercari"}
	currencySymbols = []string{"¥", "￥"}
)

// Extractor turns listing HTML into a ListingSnapshot
type Extractor struct {
	Selectors     Selectors
	MediaHost     string
	TitleHandlers []ElementHandler
	PriceHandlers []ElementHandler
}

// NewExtractor creates an extractor for images served from mediaHost
func NewExtractor(mediaHost string) *Extractor {
	if mediaHost == "" {
		mediaHost = DefaultMediaHost
	}
	e := &Extractor{
		Selectors: DefaultSelectors(),
		MediaHost: mediaHost,
	}
	e.TitleHandlers = []ElementHandler{e.headingTitleHandler, e.documentTitleHandler}
	e.PriceHandlers = []ElementHandler{e.priceBlockHandler, e.priceTextHandler}
	return e
}

// Extract never fails: every field falls back to a documented default
func (e *Extractor) Extract(html string) ListingSnapshot {
	doc, err := e.createDocument(html)
	if err != nil {
		logger.ForComponent("extractor").Warn().Err(err).Msg("Unparseable listing HTML")
		return ListingSnapshot{Title: TitleNotFound, Description: DescriptionPlaceholder, Images: []string{}}
	}

	price, _ := e.price(doc)
	return ListingSnapshot{
		Title:       e.title(doc),
		Description: e.description(doc),
		Price:       price,
		Images:      e.images(doc),
	}
}

// Price reports the listing price and whether one was found on the page
func (e *Extractor) Price(html string) (int, bool) {
	doc, err := e.createDocument(html)
	if err != nil {
		return 0, false
	}
	return e.price(doc)
}

func (e *Extractor) createDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// applyHandlers returns the first non-empty handler result
func (e *Extractor) applyHandlers(doc *goquery.Document, handlers []ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if result := strings.TrimSpace(handler(doc)); result != "" {
			return result
		}
	}
	return ""
}

func (e *Extractor) title(doc *goquery.Document) string {
	if title := e.applyHandlers(doc, e.TitleHandlers); title != "" {
		return title
	}
	return TitleNotFound
}

func (e *Extractor) headingTitleHandler(doc *goquery.Document) string {
	return doc.Find(e.Selectors.Title).First().Text()
}

// documentTitleHandler cleans the <title> text of separators and site branding
func (e *Extractor) documentTitleHandler(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = helpers.FirstSegment(title, titleSeparators...)
	for _, mark := range brandingMarks {
		title = strings.ReplaceAll(title, mark, "")
	}
	return strings.TrimSpace(title)
}

func (e *Extractor) description(doc *goquery.Document) string {
	if content, exists := doc.Find(e.Selectors.Description).First().Attr("content"); exists {
		if content = strings.TrimSpace(content); content != "" {
			return content
		}
	}
	return DescriptionPlaceholder
}

func (e *Extractor) price(doc *goquery.Document) (int, bool) {
	for _, handler := range e.PriceHandlers {
		if handler == nil {
			continue
		}
		if price, ok := parsePrice(handler(doc)); ok {
			return price, true
		}
	}
	return 0, false
}

func (e *Extractor) priceBlockHandler(doc *goquery.Document) string {
	return doc.Find(e.Selectors.Price).First().Text()
}

// priceTextHandler returns the first element text carrying a currency symbol that parses
func (e *Extractor) priceTextHandler(doc *goquery.Document) string {
	var found string
	doc.Find(e.Selectors.PriceText).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !containsAny(text, currencySymbols) {
			return true
		}
		if _, ok := parsePrice(text); ok {
			found = text
			return false
		}
		return true
	})
	return found
}

func (e *Extractor) images(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	images := []string{}
	doc.Find(e.Selectors.Image).Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists {
			return
		}
		src = strings.TrimSpace(src)
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return
		}
		if !strings.Contains(src, e.MediaHost) {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	})
	return images
}

// parsePrice strips currency symbols and thousands separators and parses the rest
func parsePrice(text string) (int, bool) {
	for _, symbol := range currencySymbols {
		text = strings.ReplaceAll(text, symbol, "")
	}
	text = strings.ReplaceAll(text, ",", "")
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return 0, false
	}
	price, err := strconv.Atoi(text)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
