package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/monoko6666/mercari-ebay/internal/listing"
	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/pkg/errors"
	"github.com/monoko6666/mercari-ebay/services/store"
)

const component = "api"

// Response messages shown by the frontend
const (
	MessageRunning       = "Mercari to eBay Auto Reseller is running!"
	MessageSaved         = "保存しました"
	MessageDeleted       = "削除しました"
	MessageSettingsSaved = "設定を保存しました"
)

// Handler serves the HTTP API on top of a listing service
type Handler struct {
	svc     *listing.Service
	metrics *metrics.Metrics
}

// NewHandler creates a handler
func NewHandler(svc *listing.Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// NewRouter registers every route and wraps the router with CORS for corsOrigin
func NewRouter(h *Handler, corsOrigin string) http.Handler {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/fetch-mercari", h.fetchListing).Methods(http.MethodGet)
	r.HandleFunc("/save-mercari", h.saveListing).Methods(http.MethodPost)
	r.HandleFunc("/generate-title", h.generateTitle).Methods(http.MethodPost)
	r.HandleFunc("/calculate-price", h.calculatePrice).Methods(http.MethodPost)

	r.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/{id}", h.updateProduct).Methods(http.MethodPut)
	r.HandleFunc("/products/{id}", h.deleteProduct).Methods(http.MethodDelete)

	r.HandleFunc("/save-settings", h.saveSettings).Methods(http.MethodPost)
	r.HandleFunc("/get-settings", h.getSettings).Methods(http.MethodGet)

	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return withCORS(r, corsOrigin)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type previewResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type saveResponse struct {
	Message          string `json:"message"`
	ID               string `json:"id"`
	TitleSource      string `json:"title_jp"`
	GeneratedTitleEN string `json:"generated_title_en"`
	Price            int    `json:"price"`
	ImageCount       int    `json:"image_count"`
}

type titleResponse struct {
	EnglishTitle string `json:"english_title"`
	CharCount    int    `json:"char_count"`
}

// priceResponse keeps the labels the frontend renders as-is
type priceResponse struct {
	CostPrice    int `json:"仕入れ値"`
	ShippingCost int `json:"送料"`
	Fee          int `json:"販売手数料"`
	Profit       int `json:"利益"`
	SellingPrice int `json:"推奨販売価格"`
}

type productSummary struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Price         int               `json:"price"`
	Description   string            `json:"description"`
	ImageURLs     []string          `json:"image_urls"`
	ItemSpecifics map[string]string `json:"item_specifics"`
}

type updateRequest struct {
	TitleTranslated *string  `json:"title_en"`
	PriceTarget     *float64 `json:"price_usd"`
}

type settingsResponse struct {
	Message  string             `json:"message"`
	Settings map[string]float64 `json:"settings"`
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageRunning})
}

func (h *Handler) fetchListing(w http.ResponseWriter, r *http.Request) {
	url, err := requiredQuery(r, "url")
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshot, err := h.svc.Preview(r.Context(), url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Images:      snapshot.Images,
	})
}

func (h *Handler) saveListing(w http.ResponseWriter, r *http.Request) {
	url, err := requiredQuery(r, "url")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Save(r.Context(), url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{
		Message:          MessageSaved,
		ID:               result.ID,
		TitleSource:      result.TitleSource,
		GeneratedTitleEN: result.TitleTranslated,
		Price:            result.Price,
		ImageCount:       result.ImageCount,
	})
}

func (h *Handler) generateTitle(w http.ResponseWriter, r *http.Request) {
	title, err := h.svc.GenerateTitle(r.Context(), r.URL.Query().Get("japanese_title"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, titleResponse{EnglishTitle: title, CharCount: len([]rune(title))})
}

func (h *Handler) calculatePrice(w http.ResponseWriter, r *http.Request) {
	req, err := parsePriceRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := h.svc.CalculatePrice(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		CostPrice:    quote.CostPrice,
		ShippingCost: quote.ShippingCost,
		Fee:          quote.Fee,
		Profit:       quote.Profit,
		SellingPrice: quote.SellingPrice,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries := make([]productSummary, 0, len(products))
	for _, p := range products {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		summaries = append(summaries, productSummary{
			ID:            p.ID,
			Title:         p.TitleSource,
			Price:         p.PriceSource,
			Description:   p.DescriptionSource,
			ImageURLs:     images,
			ItemSpecifics: map[string]string{},
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productBody(product))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, errors.NewValidation(component, "request body must be a JSON object with title_en and price_usd"))
		return
	}

	product, err := h.svc.UpdateProduct(r.Context(), mux.Vars(r)["id"], listing.ProductUpdate{
		TitleTranslated: body.TitleTranslated,
		PriceTarget:     body.PriceTarget,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productBody(product))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageDeleted})
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, r, errors.NewValidation(component, "request body must map setting names to numbers"))
		return
	}

	settings, err := h.svc.SaveSettings(r.Context(), values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Message: MessageSettingsSaved, Settings: settings})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// productBody never encodes images as null
func productBody(p *store.Product) *store.Product {
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

func requiredQuery(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", errors.NewValidation(component, name+" is required")
	}
	return value, nil
}

func parsePriceRequest(r *http.Request) (listing.PriceRequest, error) {
	url, err := requiredQuery(r, "url")
	if err != nil {
		return listing.PriceRequest{}, err
	}

	shipping, err := requiredQuery(r, "shipping_cost")
	if err != nil {
		return listing.PriceRequest{}, err
	}
	shippingCost, err := strconv.Atoi(shipping)
	if err != nil {
		return listing.PriceRequest{}, errors.NewValidation(component, "shipping_cost must be an integer")
	}

	feeRate, err := floatQuery(r, "fee_rate")
	if err != nil {
		return listing.PriceRequest{}, err
	}
	profitRate, err := floatQuery(r, "profit_rate")
	if err != nil {
		return listing.PriceRequest{}, err
	}

	return listing.PriceRequest{
		URL:               url,
		ShippingCost:      shippingCost,
		FeeRatePercent:    feeRate,
		ProfitRatePercent: profitRate,
	}, nil
}

func floatQuery(r *http.Request, name string) (float64, error) {
	raw, err := requiredQuery(r, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.NewValidation(component, name+" must be a number")
	}
	return value, nil
}

// statusFor maps an application error type to an HTTP status
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeParsing:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeNetwork, errors.ErrorTypeTranslation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	log := logger.ForAPI().WithContext(r.Context())
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: errors.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ForAPI().Error().Err(err).Msg("Failed to encode response")
	}
}
