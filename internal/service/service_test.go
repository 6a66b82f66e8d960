package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/session"
	"github.com/Skotchmaster/agency_site/internal/tokens"
)

type published struct {
	topic string
	event mykafka.Event
}

type recPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(mykafka.Event)
	p.events = append(p.events, published{topic: topic, event: ev})
	return nil
}

func (p *recPublisher) types(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.event.Type)
		}
	}
	return out
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memAudit) Record(e models.AuditLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

func newStore(opts ...repo.Option) *repo.MemoryRepo {
	return repo.NewMemoryRepo(hash.NewBcrypt(bcrypt.MinCost), opts...)
}

func newAuthService(store repo.Store) *AuthService {
	return &AuthService{
		Store:   store,
		Tokens:  tokens.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour),
		Revoked: revocation.NewMemory(),
		Events:  &recPublisher{},
	}
}

func mustUser(t *testing.T, store repo.Store, email, role string) models.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), models.NewUser{
		Name:     "Test User",
		Email:    email,
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func principalOf(u models.User) session.Principal {
	return session.Principal{ID: u.ID, Email: u.Email, Role: u.Role, Permissions: u.Permissions}
}

func ptr[T any](v T) *T { return &v }
