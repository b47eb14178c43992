package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCampaigns(e, cs) })
}

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := decodeCampaign(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Create(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCampaign(e, c) })
}

func (h *Handler) activateCampaign(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// deactivateCampaign is a soft delete: carts that selected the campaign keep
// it but it no longer discounts.
func (h *Handler) deactivateCampaign(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	if err := h.catalog.SetActive(r.Context(), r.PathValue("id"), active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range cats {
				encodeCategory(e, c)
			}
		})
	})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := decodeCategory(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.CreateCategory(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCategory(e, c) })
}

func (h *Handler) realignCategories(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updates, err := decodeRealign(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Realign(r.Context(), updates); err != nil {
		writeError(w, r, err)
		return
	}
	h.listCategories(w, r)
}
