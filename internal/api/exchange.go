package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gmlakar/zbirka/internal/exchange"
	"github.com/gmlakar/zbirka/internal/model"
	"github.com/gmlakar/zbirka/internal/store"
)

// maxImportBytes caps import payloads.
const maxImportBytes = 32 << 20

// ExchangeHandler handles export and bulk import endpoints.
type ExchangeHandler struct {
	DB *sql.DB
}

// ExportJSON handles GET /api/export/json.
func (h *ExchangeHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB, exportFilter(r))
	if err != nil {
		writeStoreError(w, err, "failed to export items")
		return
	}

	data, err := exchange.EncodeJSON(items)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to encode items")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename("json")+`"`)
	w.Write(data)
}

// ExportCSV handles GET /api/export/csv.
func (h *ExchangeHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB, exportFilter(r))
	if err != nil {
		writeStoreError(w, err, "failed to export items")
		return
	}

	data, err := exchange.EncodeCSV(items)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to encode items")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename("csv")+`"`)
	w.Write(data)
}

func exportFilter(r *http.Request) model.ItemFilter {
	return model.ItemFilter{IncludeDeleted: boolParam(r.URL.Query().Get("include_deleted"))}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("zbirka-%s.%s", time.Now().Format("2006-01-02"), ext)
}

// ImportJSON handles POST /api/import/json.
func (h *ExchangeHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, exchange.DecodeJSON)
}

// ImportCSV handles POST /api/import/csv.
func (h *ExchangeHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, exchange.DecodeCSV)
}

// runImport reads the raw payload, decodes it into candidates and applies
// them as one batch. Partial success still answers 200: the summary's
// error list is the per-record report.
func (h *ExchangeHandler) runImport(w http.ResponseWriter, r *http.Request, decode func([]byte) ([]model.ImportCandidate, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cannot read import payload")
		return
	}

	candidates, err := decode(data)
	if err != nil {
		if errors.Is(err, exchange.ErrMalformed) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to decode import payload")
		return
	}

	summary, err := store.ImportItems(r.Context(), h.DB, candidates)
	if err != nil {
		writeStoreError(w, err, "failed to import items")
		return
	}

	slog.Info("import finished",
		"batch", summary.BatchID,
		"created", summary.Created,
		"errors", len(summary.Errors),
	)
	jsonResponse(w, http.StatusOK, summary)
}
