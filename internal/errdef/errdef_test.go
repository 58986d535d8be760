package errdef

import (
	"errors"
	"io"
	"os"
	"testing"
)

func TestWrapKeepsInnermostKind(t *testing.T) {
	inner := Wrap(KindTimeout, os.ErrDeadlineExceeded, "read")
	outer := Wrap(KindIO, inner, "body")
	if KindOf(outer) != KindTimeout {
		t.Fatalf("expected timeout, got %s", KindOf(outer))
	}
	if !errors.Is(outer, os.ErrDeadlineExceeded) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindIO, nil, "x") != nil {
		t.Fatalf("expected nil")
	}
}

func TestSentinelMatching(t *testing.T) {
	err := Wrap(KindUnexpectedEOF, io.ErrUnexpectedEOF, "body")
	if !errors.Is(err, Sentinel(KindUnexpectedEOF)) {
		t.Fatalf("expected sentinel match")
	}
	if errors.Is(err, Sentinel(KindTimeout)) {
		t.Fatalf("unexpected timeout match")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause match")
	}
}

func TestErrorString(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"KindOnly":    {Sentinel(KindTooManyRedirects), "minhttp: too many redirects"},
		"WithMessage": {New(KindInvalidHeader, "missing colon in %q", "abc"), `minhttp: invalid header: missing colon in "abc"`},
		"WithCause":   {Wrap(KindIO, io.ErrClosedPipe, ""), "minhttp: io: io: read/write on closed pipe"},
	}
	for name, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("%s: got %q want %q", name, got, c.want)
		}
	}
}

func TestTimeoutInterface(t *testing.T) {
	var ne interface{ Timeout() bool }
	if !errors.As(New(KindTimeout, "slow"), &ne) || !ne.Timeout() {
		t.Fatalf("expected Timeout() to report true")
	}
}
