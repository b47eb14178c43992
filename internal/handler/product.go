package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := decodeProduct(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) listProductCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProductCategories(e, cats) })
}

func (h *Handler) createProductCategory(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := decodeProductCategory(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.CreateCategory(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeNamed(e, c.ID, c.Name) })
}

// deleteProductCategory answers 409 while products or campaigns reference the
// category.
func (h *Handler) deleteProductCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
