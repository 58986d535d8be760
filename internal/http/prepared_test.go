package http

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

func readBody(t *testing.T, pr *PreparedRequest) string {
	t.Helper()
	rc, err := pr.GetBody()
	if err != nil {
		t.Fatal(err)
	}
	if rc == nil {
		return ""
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestPrepareHeaders(t *testing.T) {
	cases := map[string]struct {
		req     *Request
		header  Header
		chunked bool
	}{
		"NoBody": {
			req:    &Request{URL: "http://example.com/"},
			header: Header{{Name: "Host", Value: "example.com"}},
		},
		"KnownLength": {
			req:    &Request{Method: MethodPost, URL: "http://example.com:8080/", Body: "abc"},
			header: Header{{Name: "Host", Value: "example.com:8080"}, {Name: "Content-Length", Value: "3"}},
		},
		"UnknownLength": {
			req:     &Request{Method: MethodPost, URL: "http://example.com/", Body: io.MultiReader(strings.NewReader("x"))},
			header:  Header{{Name: "Host", Value: "example.com"}, {Name: "Transfer-Encoding", Value: "chunked"}},
			chunked: true,
		},
		"CallerHostKept": {
			req:    &Request{URL: "http://example.com/", Header: Header{{Name: "X-A", Value: "1"}, {Name: "host", Value: "other"}}},
			header: Header{{Name: "X-A", Value: "1"}, {Name: "host", Value: "other"}},
		},
		"CallerOrderKept": {
			req:    &Request{URL: "http://example.com/", Header: Header{{Name: "b", Value: "2"}, {Name: "A", Value: "1"}, {Name: "b", Value: "3"}}},
			header: Header{{Name: "Host", Value: "example.com"}, {Name: "b", Value: "2"}, {Name: "A", Value: "1"}, {Name: "b", Value: "3"}},
		},
		"CallerLengthMatches": {
			req:    &Request{Method: MethodPut, URL: "http://example.com/", Body: []byte("abcd"), Header: Header{{Name: "Content-Length", Value: "4"}}},
			header: Header{{Name: "Host", Value: "example.com"}, {Name: "Content-Length", Value: "4"}},
		},
		"CallerChunked": {
			req:     &Request{Method: MethodPut, URL: "http://example.com/", Body: "abcd", Header: Header{{Name: "Transfer-Encoding", Value: "chunked"}}},
			header:  Header{{Name: "Host", Value: "example.com"}, {Name: "Transfer-Encoding", Value: "chunked"}},
			chunked: true,
		},
		"EmptyBody": {
			req:    &Request{Method: MethodPost, URL: "http://example.com/", Body: ""},
			header: Header{{Name: "Host", Value: "example.com"}, {Name: "Content-Length", Value: "0"}},
		},
	}
	for name, cas := range cases {
		t.Run(name, func(t *testing.T) {
			pr, err := cas.req.Prepare()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(pr.Header, cas.header) {
				t.Fatalf("header = %v, want %v", pr.Header, cas.header)
			}
			if pr.Chunked != cas.chunked {
				t.Fatalf("chunked = %v", pr.Chunked)
			}
		})
	}
}

func TestPrepareDefaultsToGet(t *testing.T) {
	pr, err := (&Request{URL: "http://example.com"}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if pr.Method != MethodGet || pr.HasBody || pr.ContentLength != -1 {
		t.Fatalf("got %s body=%v len=%d", pr.Method, pr.HasBody, pr.ContentLength)
	}
}

func TestPrepareErrors(t *testing.T) {
	cases := map[string]struct {
		req  *Request
		kind errdef.Kind
	}{
		"BadMethod":       {&Request{Method: "GE T", URL: "http://example.com/"}, errdef.KindInvalidRequest},
		"BadURL":          {&Request{URL: "example.com"}, errdef.KindMalformedURL},
		"BodyType":        {&Request{Method: MethodPost, URL: "http://example.com/", Body: 42}, errdef.KindInvalidRequest},
		"LengthConflicts": {&Request{Method: MethodPost, URL: "http://example.com/", Body: "abc", Header: Header{{Name: "Content-Length", Value: "5"}}}, errdef.KindInvalidRequest},
	}
	for name, cas := range cases {
		if _, err := cas.req.Prepare(); !errdef.Is(err, cas.kind) {
			t.Errorf("%s: err = %v, want %s", name, err, cas.kind)
		}
	}
}

func TestPrepareEncodeTarget(t *testing.T) {
	req := &Request{URL: "http://example.com/a b/ü?q=x y&r=%41", EncodeTarget: true}
	pr, err := req.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if want := "/a%20b/%C3%BC?q=x%20y&r=%41"; pr.U.Target != want {
		t.Fatalf("target = %q, want %q", pr.U.Target, want)
	}
}

func TestPrepareIDNA(t *testing.T) {
	req := &Request{URL: "http://bücher.example/"}
	pr, err := req.PrepareWith(PrepareConfig{IDNA: true})
	if err != nil {
		t.Fatal(err)
	}
	if pr.U.Host != "xn--bcher-kva.example" {
		t.Fatalf("host = %q", pr.U.Host)
	}
	if got := pr.Header.Get("Host"); got != "xn--bcher-kva.example" {
		t.Fatalf("Host header = %q", got)
	}
}

func TestGetBodyReplays(t *testing.T) {
	bodies := map[string]interface{}{
		"String":        "payload",
		"Bytes":         []byte("payload"),
		"Buffer":        bytes.NewBufferString("payload"),
		"BytesReader":   bytes.NewReader([]byte("payload")),
		"StringsReader": strings.NewReader("payload"),
	}
	for name, body := range bodies {
		pr, err := (&Request{Method: MethodPost, URL: "http://example.com/", Body: body}).Prepare()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if pr.ContentLength != 7 {
			t.Fatalf("%s: length %d", name, pr.ContentLength)
		}
		for i := 0; i < 2; i++ {
			if got := readBody(t, pr); got != "payload" {
				t.Fatalf("%s: read %d = %q", name, i, got)
			}
		}
	}
}

func TestGetBodyOneShotReader(t *testing.T) {
	pr, err := (&Request{Method: MethodPost, URL: "http://example.com/", Body: io.MultiReader(strings.NewReader("once"))}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if got := readBody(t, pr); got != "once" {
		t.Fatalf("first read = %q", got)
	}
	if _, err := pr.GetBody(); !errdef.Is(err, errdef.KindIO) {
		t.Fatalf("second GetBody err = %v", err)
	}
}

func TestFollow(t *testing.T) {
	req := &Request{
		Method: MethodPost,
		URL:    "http://a.example/form",
		Body:   "k=v",
		Header: Header{
			{"Content-Type", "application/x-www-form-urlencoded"},
			{"Authorization", "Bearer t"},
			{"Cookie", "s=1"},
			{"X-Keep", "1"},
		},
	}
	pr, err := req.Prepare()
	if err != nil {
		t.Fatal(err)
	}

	same, err := pr.Follow("/done", MethodGet, false, false)
	if err != nil {
		t.Fatal(err)
	}
	want := Header{{Name: "Host", Value: "a.example"}, {Name: "Authorization", Value: "Bearer t"}, {Name: "Cookie", Value: "s=1"}, {Name: "X-Keep", Value: "1"}}
	if !reflect.DeepEqual(same.Header, want) {
		t.Fatalf("same origin header = %v", same.Header)
	}
	if same.HasBody || same.U.Target != "/done" {
		t.Fatalf("body=%v target=%s", same.HasBody, same.U.Target)
	}

	cross, err := pr.Follow("https://b.example/x", MethodPost, true, false)
	if err != nil {
		t.Fatal(err)
	}
	want = Header{{Name: "Host", Value: "b.example"}, {Name: "Content-Type", Value: "application/x-www-form-urlencoded"}, {Name: "X-Keep", Value: "1"}, {Name: "Content-Length", Value: "3"}}
	if !reflect.DeepEqual(cross.Header, want) {
		t.Fatalf("cross origin header = %v", cross.Header)
	}
	if got := readBody(t, cross); got != "k=v" {
		t.Fatalf("kept body = %q", got)
	}
}
