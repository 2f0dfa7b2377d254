package authgate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// mockIdentityStore backs gate tests with an in-memory user set and call
// counters, so ordering assertions can prove which collaborators were
// reached.
type mockIdentityStore struct {
	mu    sync.Mutex
	users map[string]*UserRecord // keyed by email

	findErr   error
	createErr error

	findCalls   int
	createCalls int
	verifyCalls int

	nextID int
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{users: map[string]*UserRecord{}}
}

func (m *mockIdentityStore) addUser(email, password string) *UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	record := &UserRecord{
		ID:           "u" + strconv.Itoa(m.nextID),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "plain:" + password,
		Role:         RoleAccountManager,
	}
	m.users[email] = record
	return record
}

func (m *mockIdentityStore) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}

	record, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *mockIdentityStore) CreateUser(_ context.Context, user NewUser) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	m.nextID++
	record := &UserRecord{
		ID:           "u" + strconv.Itoa(m.nextID),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}
	m.users[user.Email] = record
	copied := *record
	return &copied, nil
}

func (m *mockIdentityStore) VerifyPassword(record *UserRecord, plaintext string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifyCalls++
	return record.PasswordHash == "plain:"+plaintext, nil
}

func (m *mockIdentityStore) calls() (find, create, verify int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls, m.createCalls, m.verifyCalls
}

// mockSessionTransport records established sessions and flags.
type mockSessionTransport struct {
	mu sync.Mutex

	establishErr error
	setFlagErr   error

	established []establishedSession
	flags       map[SessionHandle]map[string]string

	nextID int
}

type establishedSession struct {
	userID   string
	remember bool
}

func newMockSessionTransport() *mockSessionTransport {
	return &mockSessionTransport{flags: map[SessionHandle]map[string]string{}}
}

func (m *mockSessionTransport) Establish(_ context.Context, userID string, remember bool) (SessionHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.establishErr != nil {
		return "", m.establishErr
	}

	m.nextID++
	m.established = append(m.established, establishedSession{userID: userID, remember: remember})
	return SessionHandle("sess-" + strconv.Itoa(m.nextID)), nil
}

func (m *mockSessionTransport) SetFlag(_ context.Context, handle SessionHandle, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setFlagErr != nil {
		return m.setFlagErr
	}

	if m.flags[handle] == nil {
		m.flags[handle] = map[string]string{}
	}
	m.flags[handle][name] = value
	return nil
}

func (m *mockSessionTransport) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.established)
}

func gateTestConfig() Config {
	cfg := defaultConfig()
	cfg.SSO.Code = "AB12C"
	cfg.Security.MaxLoginAttempts = 5
	cfg.Security.LoginCooldown = time.Minute
	return cfg
}

type gateFixture struct {
	gate     *Gate
	redis    *redis.Client
	mr       *miniredis.Miniredis
	identity *mockIdentityStore
	sessions *mockSessionTransport
	sink     *ChannelSink
}

func newGateFixture(t *testing.T, cfg Config) *gateFixture {
	t.Helper()

	mr, rdb := newTestRedis(t)
	identity := newMockIdentityStore()
	sessions := newMockSessionTransport()
	sink := NewChannelSink(64)

	gate, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(identity).
		WithSessionTransport(sessions).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gate.Close)

	return &gateFixture{
		gate:     gate,
		redis:    rdb,
		mr:       mr,
		identity: identity,
		sessions: sessions,
		sink:     sink,
	}
}

// waitForAuditEvent blocks until the sink delivers an event of the given
// type or the timeout expires.
func waitForAuditEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s audit event", eventType)
		}
	}
}

var errStoreDown = errors.New("store down")
