package api

import (
	"database/sql"
	"net/http"
	"os"
	"strconv"

	"github.com/gmlakar/zbirka/internal/imaging"
	"github.com/gmlakar/zbirka/internal/model"
	"github.com/gmlakar/zbirka/internal/store"
)

// ItemsHandler handles item CRUD and suggestion endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		Search:         q.Get("search"),
		Type:           q.Get("type"),
		Brand:          q.Get("brand"),
		System:         q.Get("system"),
		IncludeDeleted: boolParam(q.Get("include_deleted")),
		OnlyDeleted:    boolParam(q.Get("only_deleted")),
	}
	if v := q.Get("min_rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = rating
		}
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		writeStoreError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// boolParam reads a query flag; anything unparsable counts as false.
func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ItemInput
	if err := decodeJSON(r, &input); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, input)
	if err != nil {
		writeStoreError(w, err, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, patch)
	if err != nil {
		writeStoreError(w, err, "failed to update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id} (soft delete).
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existed, err := store.SoftDeleteItem(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "failed to delete item")
		return
	}
	if !existed {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Restore handles POST /api/items/{id}/restore.
func (h *ItemsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existed, err := store.RestoreItem(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "failed to restore item")
		return
	}
	if !existed {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item restored"})
}

// PermanentDelete handles DELETE /api/items/{id}/permanent.
func (h *ItemsHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	removed, err := store.PermanentDeleteItem(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "failed to delete item")
		return
	}
	if !removed {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item permanently deleted"})
}

// GetImage handles GET /api/items/{id}/image. The item's image attribute
// is a filesystem path; the referenced file is processed into a JPEG
// preview on every request, nothing is stored.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.Image == nil {
		jsonError(w, http.StatusNotFound, "item has no image")
		return
	}

	file, err := os.Open(*item.Image)
	if err != nil {
		jsonError(w, http.StatusNotFound, "image file not available")
		return
	}
	defer file.Close()

	maxDim := imaging.MaxDimension
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxDim = n
		}
	}

	result, err := imaging.Process(file, maxDim)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to process image")
		return
	}

	w.Header().Set("Content-Type", result.MIME)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(result.Data)
}

// Suggestions handles GET /api/suggestions/{attribute}.
func (h *ItemsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	values, err := store.DistinctValues(r.Context(), h.DB, r.PathValue("attribute"))
	if err != nil {
		writeStoreError(w, err, "failed to list suggestions")
		return
	}
	if values == nil {
		values = []string{}
	}
	jsonResponse(w, http.StatusOK, values)
}
