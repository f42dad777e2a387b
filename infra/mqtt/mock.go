package mqtt

import (
	"context"
	"sync"

	"github.com/tambula/dispatch/core/dispatch"
)

// MockTransport is a simple in-memory transport used in tests.
type MockTransport struct {
	mu       sync.Mutex
	Accepts  map[string]bool
	Timeouts map[string]bool
	Offers   []string
}

// NewMockTransport creates a transport that declines every offer until
// configured otherwise.
func NewMockTransport() *MockTransport {
	return &MockTransport{Accepts: make(map[string]bool), Timeouts: make(map[string]bool)}
}

// SendOffer records the offer and replies from the configured maps.
func (m *MockTransport) SendOffer(_ context.Context, driverID string, _ dispatch.OfferSummary) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Offers = append(m.Offers, driverID)
	if m.Timeouts[driverID] {
		return false, dispatch.ErrOfferTimeout
	}
	return m.Accepts[driverID], nil
}

// Sent returns the driver IDs offered so far, in order.
func (m *MockTransport) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Offers))
	copy(out, m.Offers)
	return out
}
