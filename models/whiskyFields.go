package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

const imageDataColumn = "image_data"

var textColumns = func() map[string]bool {
	cols := make(map[string]bool)
	for _, f := range (&Whisky{}).textFields() {
		cols[f.column] = true
	}
	return cols
}()

// WhiskyFields is a partial record keyed by column name. Values are *string for text
// columns and []byte for image_data; a nil value sets the column to NULL.
type WhiskyFields map[string]any

// WhiskyFieldsFromJSON converts a decoded request body into WhiskyFields.
// Keys that are not writable columns (id, scraped_at, anything unknown) are dropped.
func WhiskyFieldsFromJSON(raw map[string]json.RawMessage) (WhiskyFields, error) {
	fields := make(WhiskyFields, len(raw))
	for key, value := range raw {
		switch {
		case key == imageDataColumn:
			data, err := decodeImageData(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			fields[key] = data
		case textColumns[key]:
			text, err := decodeText(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			fields[key] = text
		}
	}
	return fields, nil
}

// Columns returns the supplied column names in a stable order.
func (f WhiskyFields) Columns() []string {
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func (f WhiskyFields) applyTo(w *Whisky) {
	for _, tf := range w.textFields() {
		value, ok := f[tf.column]
		if !ok {
			continue
		}
		if s, _ := value.(*string); s != nil {
			v := *s
			*tf.value = &v
		} else {
			*tf.value = nil
		}
	}
	if value, ok := f[imageDataColumn]; ok {
		data, _ := value.([]byte)
		if data != nil {
			data = append([]byte(nil), data...)
		}
		w.ImageData = data
	}
}

// updates is the column map for a gorm Updates call.
func (f WhiskyFields) updates() map[string]any {
	out := make(map[string]any, len(f)+1)
	for col, value := range f {
		switch v := value.(type) {
		case *string:
			if v == nil {
				out[col] = nil
			} else {
				out[col] = *v
			}
		case []byte:
			if v == nil {
				out[col] = nil
			} else {
				out[col] = v
			}
		default:
			out[col] = nil
		}
	}
	return out
}

func isNull(value json.RawMessage) bool {
	return len(bytes.TrimSpace(value)) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// decodeText accepts strings, numbers and booleans; columns are free text.
func decodeText(value json.RawMessage) (*string, error) {
	if isNull(value) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		str := n.String()
		return &str, nil
	}
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		str := fmt.Sprint(b)
		return &str, nil
	}
	return nil, fmt.Errorf("expected a string, got %s", string(value))
}

func decodeImageData(value json.RawMessage) ([]byte, error) {
	if isNull(value) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("expected a base64 string")
	}
	if s == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}
