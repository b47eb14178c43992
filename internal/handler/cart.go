package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	cs, err := h.pricing.Selection(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCampaigns(e, cs) })
}

func (h *Handler) toggleCampaign(w http.ResponseWriter, r *http.Request) {
	cs, err := h.pricing.Toggle(r.Context(), r.PathValue("userID"), r.PathValue("campaignID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCampaigns(e, cs) })
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.quoteTimeout)
		defer cancel()
	}

	q, err := h.pricing.Quote(ctx, r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeQuote(e, q) })
}
