package dialer

import (
	"crypto/x509"
	"os"
	"strings"
	"sync"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// TrustStore is an immutable set of root certificates. It may be shared
// by any number of dialers.
type TrustStore struct {
	pool *x509.CertPool
}

func NewTrustStore(pool *x509.CertPool) *TrustStore {
	return &TrustStore{pool: pool}
}

// Pool returns the roots; a nil pool means the platform verifier.
func (s *TrustStore) Pool() *x509.CertPool {
	if s == nil {
		return nil
	}
	return s.pool
}

var (
	systemOnce  sync.Once
	systemStore *TrustStore
	systemErr   error
)

// SystemTrustStore loads the platform roots once per process.
func SystemTrustStore() (*TrustStore, error) {
	systemOnce.Do(func() {
		pool, err := x509.SystemCertPool()
		if err != nil {
			systemErr = errdef.Wrap(errdef.KindTLS, err, "load system roots")
			return
		}
		systemStore = &TrustStore{pool: pool}
	})
	return systemStore, systemErr
}

// RootMode decides how CA files combine with the system roots.
type RootMode string

const (
	RootAppend  RootMode = "append"
	RootReplace RootMode = "replace"
)

// LoadTrustStore builds a store from PEM files. With no files it returns
// nil, leaving verification to the backend's defaults.
func LoadTrustStore(files []string, mode RootMode) (*TrustStore, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var pool *x509.CertPool
	switch RootMode(strings.ToLower(string(mode))) {
	case RootReplace:
		pool = x509.NewCertPool()
	case RootAppend, "":
		sys, err := SystemTrustStore()
		if err != nil {
			return nil, err
		}
		if pool = sys.Pool(); pool != nil {
			pool = pool.Clone()
		} else {
			pool = x509.NewCertPool()
		}
	default:
		return nil, errdef.New(errdef.KindTLS, "unknown root mode %q", mode)
	}

	for _, f := range files {
		pem, err := os.ReadFile(f)
		if err != nil {
			return nil, errdef.Wrap(errdef.KindTLS, err, "read ca %s", f)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errdef.New(errdef.KindTLS, "no certificates found in %s", f)
		}
	}
	return &TrustStore{pool: pool}, nil
}
