package exchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gmlakar/zbirka/internal/model"
)

// csvHeader is the fixed column order of tabular exports.
var csvHeader = []string{
	"id", "title", "type", "description", "isbn_sku", "image", "rating",
	"quantity", "size", "brand", "system", "deleted", "created_at", "updated_at",
}

// EncodeCSV renders items as tabular text: the fixed header row, then one
// record per line. Null fields become empty fields; timestamps are RFC
// 3339 in UTC.
func EncodeCSV(items []model.Item) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			item.Type,
			optString(item.Description),
			optString(item.ISBNSKU),
			optString(item.Image),
			optFloat(item.Rating),
			strconv.Itoa(item.Quantity),
			optString(item.Size),
			optString(item.Brand),
			optString(item.System),
			strconv.FormatBool(item.Deleted),
			item.CreatedAt.UTC().Format(time.RFC3339),
			item.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing output: %w", err)
	}
	return buf.Bytes(), nil
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// DecodeCSV parses tabular text into import candidates. The header row
// must name at least the title and type columns (any order, any case);
// unrecognized columns are ignored, as are the store-owned id and
// timestamp columns. A row with unparsable fields becomes a candidate
// carrying its error, labeled "row N" by its 1-based data row number.
// Tolerates CRLF line endings, a UTF-8 BOM and missing trailing fields.
func DecodeCSV(data []byte) ([]model.ImportCandidate, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("%w: header must include a title column", ErrMalformed)
	}
	if _, ok := columns["type"]; !ok {
		return nil, fmt.Errorf("%w: header must include a type column", ErrMalformed)
	}

	var candidates []model.ImportCandidate
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		label := fmt.Sprintf("row %d", row)

		if err != nil {
			candidates = append(candidates, model.ImportCandidate{Label: label, Err: err})
			continue
		}

		input, err := rowInput(columns, record)
		if err != nil {
			candidates = append(candidates, model.ImportCandidate{Label: label, Err: err})
			continue
		}
		candidates = append(candidates, model.ImportCandidate{Label: label, Input: input})
	}

	return candidates, nil
}

// rowInput maps one data row onto an input by header position. Empty
// fields mean null; the typed fields must parse when present.
func rowInput(columns map[string]int, record []string) (model.ItemInput, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	input := model.ItemInput{
		Title:       get("title"),
		Type:        get("type"),
		Description: optPtr(get("description")),
		ISBNSKU:     optPtr(get("isbn_sku")),
		Image:       optPtr(get("image")),
		Size:        optPtr(get("size")),
		Brand:       optPtr(get("brand")),
		System:      optPtr(get("system")),
	}

	if v := strings.TrimSpace(get("rating")); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, errors.New("rating: not a number")
		}
		input.Rating = &rating
	}
	if v := strings.TrimSpace(get("quantity")); v != "" {
		quantity, err := strconv.Atoi(v)
		if err != nil {
			return input, errors.New("quantity: not a whole number")
		}
		input.Quantity = &quantity
	}
	if v := strings.TrimSpace(get("deleted")); v != "" {
		deleted, err := strconv.ParseBool(v)
		if err != nil {
			return input, errors.New("deleted: not a boolean")
		}
		input.Deleted = deleted
	}

	return input, nil
}

func optPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
