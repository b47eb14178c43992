package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/cart"
	"github.com/xenking/kart-campaigns/internal/domain/discount"
	"github.com/xenking/kart-campaigns/internal/domain/pricing"
	"github.com/xenking/kart-campaigns/internal/domain/product"
	"github.com/xenking/kart-campaigns/pkg/httpmiddleware"
)

// writeError maps domain errors to status codes. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr      *requestError
		invalidCamp *campaign.InvalidCampaignError
		invalidItem *discount.InvalidItemError
	)
	switch {
	case errors.As(err, &reqErr):
		httpmiddleware.WriteError(w, http.StatusBadRequest, reqErr.Error())
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, campaign.ErrCategoryNotFound),
		errors.Is(err, cart.ErrUserNotFound),
		errors.Is(err, product.ErrCategoryNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, product.ErrDuplicateName),
		errors.Is(err, product.ErrCategoryInUse):
		httpmiddleware.WriteError(w, http.StatusConflict, rootMessage(err))
	case errors.As(err, &invalidCamp):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, invalidCamp.Error())
	case errors.As(err, &invalidItem):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, invalidItem.Error())
	case errors.Is(err, campaign.ErrNameRequired),
		errors.Is(err, campaign.ErrEmptyRealign),
		errors.Is(err, campaign.ErrRankOutOfRange),
		errors.Is(err, product.ErrNameRequired),
		errors.Is(err, product.ErrCategoryRequired),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, pricing.ErrCampaignInactive),
		errors.Is(err, discount.ErrNegativePoints),
		errors.Is(err, discount.ErrNegativeSubtotal):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, rootMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		httpmiddleware.WriteError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// rootMessage returns the message of the innermost error, hiding wrapping
// context such as query names.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
