package http

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// Text decodes the body to UTF-8 using the charset parameter of
// Content-Type. Bodies without a charset are returned as they are.
func (r *Response) Text() (string, error) {
	label := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			label = strings.ToLower(strings.TrimSpace(params["charset"]))
		}
	}
	if label == "" || label == "utf-8" || label == "utf8" {
		return string(r.Body), nil
	}
	reader, err := charset.NewReaderLabel(label, bytes.NewReader(r.Body))
	if err != nil {
		return "", errdef.Wrap(errdef.KindIO, err, "charset %s", label)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", errdef.Wrap(errdef.KindIO, err, "decode %s body", label)
	}
	return string(decoded), nil
}
