package enrich

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Lookuper produces enrichment step results. Implementations backed by real
// APIs must honor the context deadline; the caller supplies the timeout.
type Lookuper interface {
	VTHash(ctx context.Context, hashes []string) (map[string]interface{}, error)
	VTURL(ctx context.Context, urls []string) (map[string]interface{}, error)
	AbuseIPDB(ctx context.Context, ip string) (map[string]interface{}, error)
}

// Mock synthesizes randomized enrichment results for dry-runs. It never
// fails and never touches the network.
type Mock struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMock returns a Mock seeded from the clock.
func NewMock() *Mock {
	return NewMockSeeded(time.Now().UnixNano())
}

// NewMockSeeded returns a Mock with a fixed seed, for deterministic tests.
func NewMockSeeded(seed int64) *Mock {
	return &Mock{rnd: rand.New(rand.NewSource(seed))}
}

func (m *Mock) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Float64()
}

// VTHash mocks a VirusTotal hash lookup.
func (m *Mock) VTHash(_ context.Context, hashes []string) (map[string]interface{}, error) {
	return map[string]interface{}{
		"any_malicious": m.roll() < 0.3,
		"max_score":     int(m.roll() * 100),
		"total_lookups": len(hashes),
	}, nil
}

// VTURL mocks a VirusTotal URL reputation lookup.
func (m *Mock) VTURL(_ context.Context, urls []string) (map[string]interface{}, error) {
	return map[string]interface{}{
		"any_malicious": m.roll() < 0.5,
		"max_score":     int(m.roll() * 100),
		"urls_checked":  len(urls),
	}, nil
}

// AbuseIPDB mocks an AbuseIPDB/GeoIP lookup.
func (m *Mock) AbuseIPDB(_ context.Context, ip string) (map[string]interface{}, error) {
	return map[string]interface{}{
		"score":   int(m.roll() * 100),
		"country": "US",
		"asn":     "AS15169",
		"ip":      ip,
	}, nil
}
