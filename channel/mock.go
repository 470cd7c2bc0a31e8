package channel

import (
	"context"
	"sync"
)

// defaultMockResponse is returned when a Mock has no scripted responses.
const defaultMockResponse = `{
  "summary": "Mock analysis complete",
  "violations": [],
  "passed_checks": ["MOCK-001"],
  "recommendations": [],
  "metrics": {"files_analyzed": 1, "total_lines": 10}
}`

// Mock is a scripted Channel for tests. Responses are served in order,
// cycling when exhausted; every request is recorded.
type Mock struct {
	Responses []string
	Err       error

	mu    sync.Mutex
	calls []Request
	next  int
}

// Name identifies this channel in logs.
func (m *Mock) Name() string {
	return "mock"
}

// Invoke records the request and returns the next scripted response.
func (m *Mock) Invoke(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return defaultMockResponse, nil
	}

	response := m.Responses[m.next%len(m.Responses)]
	m.next++
	return response, nil
}

// Calls returns a copy of the recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}
