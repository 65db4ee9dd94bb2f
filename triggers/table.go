package triggers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// table is a string-keyed map that remembers insertion order and encodes as
// a JSON object in that order.
type table[T any] struct {
	keys []string
	rows map[string]*T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]*T{}}
}

func (t *table[T]) Len() int {
	return len(t.keys)
}

func (t *table[T]) Get(key string) (*T, bool) {
	row, ok := t.rows[key]
	return row, ok
}

// Insert adds row under key unless key is already present.
func (t *table[T]) Insert(key string, row *T) bool {
	if _, exists := t.rows[key]; exists {
		return false
	}
	t.keys = append(t.keys, key)
	t.rows[key] = row
	return true
}

func (t *table[T]) Delete(key string) bool {
	if _, exists := t.rows[key]; !exists {
		return false
	}
	delete(t.rows, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *table[T]) Each(fn func(key string, row *T) bool) {
	for _, key := range t.keys {
		if !fn(key, t.rows[key]) {
			return
		}
	}
}

func (t *table[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(t.rows[key])
		if err != nil {
			return nil, fmt.Errorf("encode row %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *table[T]) UnmarshalJSON(data []byte) error {
	t.keys = nil
	t.rows = map[string]*T{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("table: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("table: expected key, got %v", tok)
		}
		row := new(T)
		if err := dec.Decode(row); err != nil {
			return fmt.Errorf("table: decode row %q: %w", key, err)
		}
		if _, dup := t.rows[key]; dup {
			// Duplicate object keys: the later value wins, like encoding/json.
			t.rows[key] = row
			continue
		}
		t.keys = append(t.keys, key)
		t.rows[key] = row
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
