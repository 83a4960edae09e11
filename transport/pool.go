// Package transport supplies the process-wide, TLS-verify-keyed HTTP
// client pool spec.md §4.2 describes. Grounded on adapters/adapter.go's
// NewHTTPAdapter, which builds an *http.Transport from an
// HTTPAdapterConfig and an ssl.GetRootCAPool()-backed tls.Config; this
// package keeps that construction but keys and caches it per distinct
// TLS-verify mode instead of building one unconfigurable transport per
// adapter instantiation.
package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pv-udpv/vast-client/ssl"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// Settings controls how a pool entry's *http.Transport is built. Mirrors
// adapters.HTTPAdapterConfig's fields plus the keepalive knobs spec.md
// §4.2 calls out by name. MaxConns bounds the transport's process-wide
// idle connection cache (http.Transport.MaxIdleConns); MaxConnsPerHost and
// MaxIdleConnsPerHost narrow that further per host.
type Settings struct {
	RequestTimeout      time.Duration
	MaxConns            int
	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	KeepAliveExpiry     time.Duration
}

// DefaultSettings chooses sensible defaults, mirroring
// adapters.DefaultHTTPAdapterConfig. KeepAliveExpiry defaults to 300s per
// spec.md §4.2's "survive inter-quartile gaps" rationale for tracking
// traffic.
func DefaultSettings() Settings {
	return Settings{
		RequestTimeout:      5 * time.Second,
		MaxConns:            100,
		MaxConnsPerHost:     20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		KeepAliveExpiry:     300 * time.Second,
	}
}

// Pool lazily builds and caches one *http.Client per distinct
// vastconfig.TLSVerifyMode, since each mode requires a distinct TLS stack
// (spec.md §4.2's rationale: "caching by key prevents connection churn
// when the same verify mode is used repeatedly").
type Pool struct {
	settings Settings

	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewPool returns an empty Pool using settings for every client it builds.
func NewPool(settings Settings) *Pool {
	return &Pool{
		settings: settings,
		clients:  make(map[string]*http.Client),
	}
}

// Get returns the cached client for mode, building and caching one on
// first lookup.
func (p *Pool) Get(mode vastconfig.TLSVerifyMode) (*http.Client, error) {
	key := mode.Key()

	p.mu.Lock()
	if client, ok := p.clients[key]; ok {
		p.mu.Unlock()
		return client, nil
	}
	p.mu.Unlock()

	client, err := p.build(mode)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.clients[key]; ok {
		p.mu.Unlock()
		return existing, nil
	}
	p.clients[key] = client
	p.mu.Unlock()

	return client, nil
}

func (p *Pool) build(mode vastconfig.TLSVerifyMode) (*http.Client, error) {
	tlsConfig := &tls.Config{}

	switch {
	case mode.Insecure:
		tlsConfig.InsecureSkipVerify = true
	case mode.CABundlePath != "":
		pool, err := ssl.AppendPEMFileToRootCAPool(ssl.GetRootCAPool(), mode.CABundlePath)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	default:
		tlsConfig.RootCAs = ssl.GetRootCAPool()
	}

	dialer := &net.Dialer{KeepAlive: p.settings.KeepAliveExpiry}

	transport := &http.Transport{
		MaxConnsPerHost:     p.settings.MaxConnsPerHost,
		MaxIdleConns:        p.settings.MaxConns,
		MaxIdleConnsPerHost: p.settings.MaxIdleConnsPerHost,
		IdleConnTimeout:     p.settings.IdleConnTimeout,
		TLSClientConfig:     tlsConfig,
		DialContext:         dialer.DialContext,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   p.settings.RequestTimeout,
	}, nil
}

// Size returns the number of distinct TLS-verify modes currently pooled,
// exported for the vast_transport_pool_size gauge.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Close releases every pooled client's idle connections. Per spec.md
// §4.2's "explicit shutdown closes all" lifecycle; it does not prevent
// Get from being called again afterward (a fresh client would just be
// rebuilt), matching the client facade's close()-then-done usage.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, client := range p.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		delete(p.clients, key)
	}
}
