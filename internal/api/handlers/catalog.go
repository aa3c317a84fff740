package handlers

import (
	"net/http"

	"github.com/nuworks/agentia/internal/order"
)

type CatalogHandler struct {
	catalog *order.Catalog
}

func NewCatalogHandler(catalog *order.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Listing())
}
