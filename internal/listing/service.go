package listing

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/monoko6666/mercari-ebay/internal/pricing"
	"github.com/monoko6666/mercari-ebay/internal/scraper"
	"github.com/monoko6666/mercari-ebay/internal/translator"
	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/pkg/errors"
	"github.com/monoko6666/mercari-ebay/services/publisher"
	"github.com/monoko6666/mercari-ebay/services/store"
)

const component = "listing"

// Event keys published on the product stream
const (
	EventProductSaved   = "product.saved"
	EventProductDeleted = "product.deleted"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Fetcher    scraper.Fetcher
	Extractor  *scraper.Extractor
	Translator translator.Translator
	Products   store.ProductStore
	Settings   store.SettingsStore
	Publisher  publisher.Publisher
	Metrics    *metrics.Metrics
}

// Service runs the fetch → extract → translate → persist pipeline and
// the product and settings operations around it
type Service struct {
	deps  Dependencies
	newID func() string
}

// NewService creates a service. A nil Publisher or Extractor gets a default.
func NewService(deps Dependencies) *Service {
	if deps.Publisher == nil {
		deps.Publisher = publisher.Noop{}
	}
	if deps.Extractor == nil {
		deps.Extractor = scraper.NewExtractor(scraper.DefaultMediaHost)
	}
	return &Service{deps: deps, newID: uuid.NewString}
}

// SaveResult summarises a saved listing
type SaveResult struct {
	ID              string
	TitleSource     string
	TitleTranslated string
	Price           int
	ImageCount      int
}

// PriceRequest is the input of CalculatePrice
type PriceRequest struct {
	URL               string
	ShippingCost      int
	FeeRatePercent    float64
	ProfitRatePercent float64
}

// ProductUpdate carries the editable fields; nil fields are left unchanged
type ProductUpdate struct {
	TitleTranslated *string
	PriceTarget     *float64
}

// Event is the payload published for product lifecycle changes
type Event struct {
	Type            string    `json:"type"`
	ProductID       string    `json:"product_id"`
	SourceURL       string    `json:"mercari_url,omitempty"`
	TitleSource     string    `json:"title_jp,omitempty"`
	TitleTranslated string    `json:"title_en,omitempty"`
	PriceSource     int       `json:"price_jpy,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Preview fetches a listing without rendering and returns its snapshot
func (s *Service) Preview(ctx context.Context, url string) (scraper.ListingSnapshot, error) {
	html, err := s.deps.Fetcher.Fetch(ctx, url, scraper.ModeStatic)
	if err != nil {
		return scraper.ListingSnapshot{}, err
	}
	return s.deps.Extractor.Extract(html), nil
}

// Save renders, extracts and translates a listing and persists it as a new product.
// Nothing is written when the fetch fails.
func (s *Service) Save(ctx context.Context, url string) (*SaveResult, error) {
	html, err := s.deps.Fetcher.Fetch(ctx, url, scraper.ModeRendered)
	if err != nil {
		return nil, err
	}

	snapshot := s.deps.Extractor.Extract(html)
	translated := s.deps.Translator.Translate(ctx, snapshot.Title)

	product := &store.Product{
		ID:                s.newID(),
		SourceURL:         url,
		TitleSource:       snapshot.Title,
		TitleTranslated:   translated.Title,
		DescriptionSource: snapshot.Description,
		PriceSource:       snapshot.Price,
		Images:            snapshot.Images,
		StockStatus:       store.StockAvailable,
	}
	if err := s.deps.Products.Create(ctx, product); err != nil {
		return nil, errors.NewStore(component, "failed to save product", err)
	}
	s.deps.Metrics.IncSaved()

	logger.ForComponent(component).WithContext(ctx).Info().
		Str("product_id", product.ID).
		Str("url", url).
		Int("price_jpy", product.PriceSource).
		Int("images", len(product.Images)).
		Bool("translated", translated.OK()).
		Msg("Saved listing")

	s.publish(ctx, EventProductSaved, Event{
		Type:            EventProductSaved,
		ProductID:       product.ID,
		SourceURL:       product.SourceURL,
		TitleSource:     product.TitleSource,
		TitleTranslated: product.TitleTranslated,
		PriceSource:     product.PriceSource,
	})

	return &SaveResult{
		ID:              product.ID,
		TitleSource:     product.TitleSource,
		TitleTranslated: product.TitleTranslated,
		Price:           product.PriceSource,
		ImageCount:      len(product.Images),
	}, nil
}

// CalculatePrice reads the live listing price and computes the selling price.
// Unlike Save, a missing price is an error rather than zero.
func (s *Service) CalculatePrice(ctx context.Context, req PriceRequest) (pricing.Quote, error) {
	if req.ShippingCost < 0 || !finiteNonNegative(req.FeeRatePercent) || !finiteNonNegative(req.ProfitRatePercent) {
		return pricing.Quote{}, errors.NewValidation(component, "shipping_cost, fee_rate and profit_rate must be finite and not negative")
	}

	html, err := s.deps.Fetcher.Fetch(ctx, req.URL, scraper.ModeRendered)
	if err != nil {
		return pricing.Quote{}, err
	}

	cost, found := s.deps.Extractor.Price(html)
	if !found {
		return pricing.Quote{}, errors.NewParsing(component, "could not extract the price from the listing", nil)
	}

	return pricing.Compute(cost, req.ShippingCost, req.FeeRatePercent, req.ProfitRatePercent)
}

// GenerateTitle translates a title on its own. Here a failed generation is
// returned to the caller since there is no record to degrade into.
func (s *Service) GenerateTitle(ctx context.Context, sourceTitle string) (string, error) {
	sourceTitle = strings.TrimSpace(sourceTitle)
	if sourceTitle == "" || sourceTitle == scraper.TitleNotFound {
		return "", errors.NewValidation(component, "japanese_title is required")
	}
	result := s.deps.Translator.Translate(ctx, sourceTitle)
	if result.Err != nil {
		return "", result.Err
	}
	return result.Title, nil
}

// ListProducts returns every saved product
func (s *Service) ListProducts(ctx context.Context) ([]store.Product, error) {
	products, err := s.deps.Products.List(ctx)
	if err != nil {
		return nil, errors.NewStore(component, "failed to list products", err)
	}
	return products, nil
}

// GetProduct returns one product
func (s *Service) GetProduct(ctx context.Context, id string) (*store.Product, error) {
	product, err := s.deps.Products.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(id, "failed to load product", err)
	}
	return product, nil
}

// UpdateProduct sets the translated title and target price of a product.
// Input is validated before the store is touched.
func (s *Service) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*store.Product, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	current, err := s.deps.Products.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(id, "failed to load product", err)
	}

	next := store.ProductUpdate{
		TitleTranslated: current.TitleTranslated,
		PriceTarget:     current.PriceTarget,
	}
	if update.TitleTranslated != nil {
		next.TitleTranslated = strings.TrimSpace(*update.TitleTranslated)
	}
	if update.PriceTarget != nil {
		next.PriceTarget = *update.PriceTarget
	}

	product, err := s.deps.Products.Update(ctx, id, next)
	if err != nil {
		return nil, s.storeError(id, "failed to update product", err)
	}
	return product, nil
}

// DeleteProduct removes a product
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.deps.Products.Delete(ctx, id); err != nil {
		return s.storeError(id, "failed to delete product", err)
	}
	s.publish(ctx, EventProductDeleted, Event{Type: EventProductDeleted, ProductID: id})
	return nil
}

// SaveSettings upserts values and returns the resulting settings map.
// An empty map changes nothing.
func (s *Service) SaveSettings(ctx context.Context, values map[string]float64) (map[string]float64, error) {
	if len(values) == 0 {
		return s.GetSettings(ctx)
	}
	for key, value := range values {
		if strings.TrimSpace(key) == "" {
			return nil, errors.NewValidation(component, "settings keys must not be empty")
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.NewValidation(component, fmt.Sprintf("setting %s must be a finite number", key))
		}
	}

	if err := s.deps.Settings.Upsert(ctx, values); err != nil {
		return nil, errors.NewStore(component, "failed to save settings", err)
	}
	return s.GetSettings(ctx)
}

// GetSettings returns all settings with the default keys filled in
func (s *Service) GetSettings(ctx context.Context) (map[string]float64, error) {
	settings, err := s.deps.Settings.All(ctx)
	if err != nil {
		return nil, errors.NewStore(component, "failed to load settings", err)
	}
	return store.WithDefaults(settings), nil
}

// publish is best effort: the record is already committed
func (s *Service) publish(ctx context.Context, key string, event Event) {
	event.OccurredAt = time.Now().UTC()
	data, err := json.Marshal(event)
	if err == nil {
		err = s.deps.Publisher.Publish(ctx, key, data)
	}
	if err != nil {
		logger.ForPublisher().WithContext(ctx).Warn().
			Err(errors.NewPublisher(component, "failed to publish event", err)).
			Str("event", key).
			Str("product_id", event.ProductID).
			Msg("Event was not published")
	}
}

func (s *Service) storeError(id, message string, err error) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NewNotFound(component, fmt.Sprintf("product %s not found", id))
	}
	return errors.NewStore(component, message, err)
}

func validateUpdate(update ProductUpdate) error {
	if update.TitleTranslated == nil && update.PriceTarget == nil {
		return errors.NewValidation(component, "title_en or price_usd is required")
	}
	if update.TitleTranslated != nil && utf8.RuneCountInString(strings.TrimSpace(*update.TitleTranslated)) > translator.MaxTitleLength {
		return errors.NewValidation(component, fmt.Sprintf("title_en must be at most %d characters", translator.MaxTitleLength))
	}
	if update.PriceTarget != nil {
		price := *update.PriceTarget
		if !finiteNonNegative(price) {
			return errors.NewValidation(component, "price_usd must be a non-negative number")
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
