package vat

import (
	"context"
	"sync"
)

// MockRegistry is a RegistryClient for tests.
type MockRegistry struct {
	CheckFunc func(ctx context.Context, prefix, remainder string) RegistryResult

	mu    sync.Mutex
	Calls []RegistryCall
}

// RegistryCall records one MockRegistry.Check invocation.
type RegistryCall struct {
	Prefix    string
	Remainder string
}

// Check records the call and delegates to CheckFunc. Without CheckFunc it
// answers RegistryValid.
func (m *MockRegistry) Check(ctx context.Context, prefix, remainder string) RegistryResult {
	m.mu.Lock()
	m.Calls = append(m.Calls, RegistryCall{Prefix: prefix, Remainder: remainder})
	m.mu.Unlock()

	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, prefix, remainder)
	}
	return RegistryResult{Status: RegistryValid, Attempts: 1}
}

// CallCount returns the number of Check calls.
func (m *MockRegistry) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockAuditor records inconclusive notifications.
type MockAuditor struct {
	mu     sync.Mutex
	Events []RegistryResult
	Addrs  []Address
}

func (m *MockAuditor) RegistryInconclusive(_ context.Context, addr Address, result RegistryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, result)
	m.Addrs = append(m.Addrs, addr)
}

// Count returns the number of recorded events.
func (m *MockAuditor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}
