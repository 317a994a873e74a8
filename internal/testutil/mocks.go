package testutil

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"regenwasi/internal/gateways"
	"regenwasi/internal/models"
	"regenwasi/internal/testutil/logmock"
)

// MockLogger implements providers.Logger and records calls.
// It lives in the logmock subpackage so packages imported by testutil
// (e.g. gateways) can use it in their own tests without an import cycle.
type MockLogger = logmock.MockLogger

type LogEntry = logmock.LogEntry

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockAutosaver implements interfaces.AutosaverInterface and counts requests.
type MockAutosaver struct {
	mu       sync.Mutex
	Requests int
	Flushes  int
	Stopped  bool
}

func (m *MockAutosaver) Request() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockAutosaver) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
	return nil
}

func (m *MockAutosaver) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
}

func (m *MockAutosaver) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests
}

// MockChatGateway implements gateways.ChatGatewayInterface.
type MockChatGateway struct {
	Reply gateways.ChatReply
	Calls int
}

func (m *MockChatGateway) Complete(_ context.Context, _ *models.PetRecord, _ models.Memories, _ []models.ChatMessage, _ string) gateways.ChatReply {
	m.Calls++
	return m.Reply
}

// MockMemoryGateway implements gateways.MemoryGatewayInterface.
type MockMemoryGateway struct {
	FactsOut []string
}

func (m *MockMemoryGateway) Extract(_ context.Context, _ string, facts []string) []string {
	if m.FactsOut != nil {
		return m.FactsOut
	}
	return facts
}

// MockEvaluationGateway implements gateways.EvaluationGatewayInterface.
type MockEvaluationGateway struct {
	Result gateways.EvaluationResult
	Calls  int
}

func (m *MockEvaluationGateway) Evaluate(_ context.Context, _ string, _ string) gateways.EvaluationResult {
	m.Calls++
	return m.Result
}

// MockHubGateway implements gateways.HubGatewayInterface with injectable
// responses and an error switch for the failure paths.
type MockHubGateway struct {
	RegisterID string
	Raw        json.RawMessage
	Err        error

	RegisterCalls int
	SyncCalls     int
	SyncRequests  []gateways.HubSyncRequest
}

func (m *MockHubGateway) Register(_ context.Context, _ gateways.HubRegisterRequest) (*gateways.HubRegisterResponse, error) {
	m.RegisterCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	resp := &gateways.HubRegisterResponse{}
	resp.Data.ID = m.RegisterID
	return resp, nil
}

func (m *MockHubGateway) Sync(_ context.Context, req gateways.HubSyncRequest) (*gateways.HubSyncResponse, error) {
	m.SyncCalls++
	m.SyncRequests = append(m.SyncRequests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &gateways.HubSyncResponse{}, nil
}

func (m *MockHubGateway) Leaderboard(_ context.Context, _, _ int, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) Profile(_ context.Context, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) Feed(_ context.Context, _, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) Gift(_ context.Context, _, _ string, _ int) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) Messages(_ context.Context, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) SendMessage(_ context.Context, _, _, _, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) Activity(_ context.Context, _ string) (json.RawMessage, error) {
	return m.raw()
}

func (m *MockHubGateway) raw() (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Raw == nil {
		return json.RawMessage(`{}`), nil
	}
	return m.Raw, nil
}
