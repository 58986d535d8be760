package http

import "strings"

// Field is a single header line. Names keep the caller's casing.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields. Names compare
// case-insensitively, duplicates are kept as separate entries and the
// order fields were added in is the order they go on the wire.
type Header []Field

func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func (h Header) Values(name string) []string {
	var vs []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

func (h Header) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

func (h *Header) Add(name, value string) {
	*h = append(*h, Field{name, value})
}

// Set replaces the first field named name in place and removes the
// others, or appends a new field when there is none.
func (h *Header) Set(name, value string) {
	out := (*h)[:0]
	set := false
	for _, f := range *h {
		if strings.EqualFold(f.Name, name) {
			if set {
				continue
			}
			f.Value, set = value, true
		}
		out = append(out, f)
	}
	if !set {
		out = append(out, Field{name, value})
	}
	*h = out
}

func (h *Header) Del(name string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	*h = out
}

func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(Header(nil), h...)
}

// hasToken reports whether any comma separated element of the named
// fields equals token, ignoring case.
func (h Header) hasToken(name, token string) bool {
	for _, v := range h.Values(name) {
		for _, t := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(t), token) {
				return true
			}
		}
	}
	return false
}

// IsChunked reports whether Transfer-Encoding lists chunked.
func (h Header) IsChunked() bool {
	return h.hasToken("Transfer-Encoding", "chunked")
}
