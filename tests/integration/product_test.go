//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

type productResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CategoryID string      `json:"category_id"`
	Price      json.Number `json:"price"`
	IsActive   bool        `json:"is_active"`
}

func TestProducts_List(t *testing.T) {
	resp := doAuth(t, http.MethodGet, "/api/products", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	byID := make(map[string]productResponse)
	for _, p := range decodeJSON[[]productResponse](t, resp) {
		byID[p.ID] = p
	}
	if watch := byID["watch"]; watch.Price.String() != "850.00" || watch.CategoryID != "accessories" {
		t.Errorf("watch: got %+v", watch)
	}
	if pager, ok := byID["pager"]; !ok || pager.IsActive {
		t.Errorf("pager should be listed as inactive, got %+v", pager)
	}
}

func TestProductCategories_Lifecycle(t *testing.T) {
	resp := doAuth(t, http.MethodPost, "/api/product-categories", map[string]any{"name": "Garden"})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create category: expected 201, got %d", resp.StatusCode)
	}
	cat := decodeJSON[namedResponse](t, resp)
	resp.Body.Close()

	resp = doAuth(t, http.MethodPost, "/api/product-categories", map[string]any{"name": "Garden"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate category: expected 409, got %d", resp.StatusCode)
	}

	resp = doAuth(t, http.MethodPost, "/api/products", map[string]any{
		"name":        "Rake",
		"category_id": cat.ID,
		"price":       "19.90",
	})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create product: expected 201, got %d", resp.StatusCode)
	}
	rake := decodeJSON[productResponse](t, resp)
	resp.Body.Close()
	if !rake.IsActive || rake.Price.String() != "19.90" {
		t.Errorf("rake: got %+v", rake)
	}

	// Products and campaigns pin their category.
	for _, id := range []string{cat.ID, "clothing"} {
		resp = doAuth(t, http.MethodDelete, "/api/product-categories/"+id, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("delete %s: expected 409, got %d", id, resp.StatusCode)
		}
	}

	resp = doAuth(t, http.MethodDelete, "/api/product-categories/missing", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete missing: expected 404, got %d", resp.StatusCode)
	}
}

func TestProducts_CreateErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		body map[string]any
		want int
	}{
		{"MissingName", map[string]any{"category_id": "clothing", "price": "10"}, http.StatusUnprocessableEntity},
		{"ZeroPrice", map[string]any{"name": "Scarf", "category_id": "clothing", "price": "0"}, http.StatusUnprocessableEntity},
		{"UnknownCategory", map[string]any{"name": "Scarf", "category_id": "garden-tools", "price": "10"}, http.StatusNotFound},
		{"DuplicateName", map[string]any{"name": "Hat", "category_id": "accessories", "price": "10"}, http.StatusConflict},
	} {
		t.Run(tt.name, func(t *testing.T) {
			resp := doAuth(t, http.MethodPost, "/api/products", tt.body)
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if body := decodeJSON[errorResponse](t, resp); body.Code != tt.want {
				t.Errorf("code: got %d, want %d", body.Code, tt.want)
			}
		})
	}
}
