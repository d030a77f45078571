package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gmlakar/zbirka/internal/model"
)

// EncodeJSON renders items as an indented JSON array. Optional fields are
// emitted as explicit nulls so the output is lossless.
func EncodeJSON(items []model.Item) ([]byte, error) {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a JSON array of item records into import candidates.
// The top-level value must be an array, otherwise the whole payload is
// rejected with ErrMalformed. An element of the wrong shape becomes a
// candidate carrying its error; a syntax error aborts the decode. Each
// candidate is labeled with its title, or "record N" when there is none.
func DecodeJSON(data []byte) ([]model.ImportCandidate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: top-level value must be an array", ErrMalformed)
	}

	var candidates []model.ImportCandidate
	n := 0
	for dec.More() {
		n++
		var input model.ItemInput
		if err := dec.Decode(&input); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			// The decoder consumed the offending value, so the rest of
			// the array is still readable.
			reason := errors.New("not an item object")
			if typeErr.Field != "" {
				reason = fmt.Errorf("invalid value for %s", typeErr.Field)
			}
			candidates = append(candidates, model.ImportCandidate{
				Label: fmt.Sprintf("record %d", n),
				Err:   reason,
			})
			continue
		}

		label := input.Title
		if label == "" {
			label = fmt.Sprintf("record %d", n)
		}
		candidates = append(candidates, model.ImportCandidate{Label: label, Input: input})
	}

	// Consume the closing bracket so trailing garbage is caught.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return candidates, nil
}
