package headers

import (
	"fmt"
	"io"
	"strings"
)

// Headers is an ordered set of response header fields. Fields are written in
// the order they were first set; lookups ignore case.
type Headers struct {
	keys   []string
	values map[string]string
}

func NewHeaders() Headers {
	return Headers{
		values: make(map[string]string),
	}
}

// Set adds a field. Setting an existing key again joins the values with ", "
// and keeps the field in its original position.
func (h *Headers) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	lower := strings.ToLower(key)
	v, ok := h.values[lower]
	if ok {
		value = strings.Join([]string{
			v,
			value,
		}, ", ")
	} else {
		h.keys = append(h.keys, key)
	}
	h.values[lower] = value
}

// Replace overwrites the value of key, adding the field if it is missing.
func (h *Headers) Replace(key, value string) {
	lower := strings.ToLower(key)
	if _, ok := h.values[lower]; ok {
		h.values[lower] = value
		return
	}
	h.Set(key, value)
}

func (h Headers) Get(key string) (string, bool) {
	v, ok := h.values[strings.ToLower(key)]
	return v, ok
}

// Write emits every field as "Key: value\n" in insertion order.
func (h Headers) Write(w io.Writer) error {
	for _, k := range h.keys {
		_, err := fmt.Fprintf(w, "%s: %s\n", k, h.values[strings.ToLower(k)])
		if err != nil {
			return err
		}
	}
	return nil
}

func (h Headers) String() string {
	var sb strings.Builder
	h.Write(&sb)
	return sb.String()
}
