// Package handler exposes the campaign catalog and cart pricing over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/xenking/kart-campaigns/internal/domain/auth"
	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/pricing"
	"github.com/xenking/kart-campaigns/internal/domain/product"
	"github.com/xenking/kart-campaigns/pkg/httpmiddleware"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// QuoteTimeout bounds a single quote computation. Zero means no bound
	// beyond the request context.
	QuoteTimeout time.Duration
	// APIKeyPepper is the HMAC key API key hashes are computed with.
	APIKeyPepper []byte
}

// Handler serves the /api routes.
type Handler struct {
	catalog  *campaign.Service
	pricing  *pricing.Service
	products *product.Service
	security *SecurityHandler

	quoteTimeout time.Duration
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	catalog *campaign.Service,
	pricingService *pricing.Service,
	products *product.Service,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		catalog:      catalog,
		pricing:      pricingService,
		products:     products,
		security:     NewSecurityHandler(apikeys, cfg.APIKeyPepper),
		quoteTimeout: cfg.QuoteTimeout,
	}
}

// Routes returns the API mux. Every route requires an API key.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, httpmiddleware.Labeler(h.security.Require(fn)))
	}

	handle("GET /api/campaigns", h.listCampaigns)
	handle("POST /api/campaigns", h.createCampaign)
	handle("PATCH /api/campaigns/{id}/activate", h.activateCampaign)
	handle("DELETE /api/campaigns/{id}", h.deactivateCampaign)

	handle("GET /api/campaign-categories", h.listCategories)
	handle("POST /api/campaign-categories", h.createCategory)
	handle("PATCH /api/campaign-categories/realign", h.realignCategories)

	handle("GET /api/products", h.listProducts)
	handle("POST /api/products", h.createProduct)
	handle("GET /api/product-categories", h.listProductCategories)
	handle("POST /api/product-categories", h.createProductCategory)
	handle("DELETE /api/product-categories/{id}", h.deleteProductCategory)

	handle("GET /api/carts/{userID}/campaigns", h.getSelection)
	handle("POST /api/carts/{userID}/campaigns/{campaignID}/toggle", h.toggleCampaign)
	handle("GET /api/carts/{userID}/quote", h.getQuote)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "route not found")
	})
	return mux
}
