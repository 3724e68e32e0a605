package usecase

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/idempotency"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory repoDB with the same tenant scoping and
// consume-once semantics as the postgres store.
type memStore struct {
	mu    sync.Mutex
	creds map[string]*entity.Credential

	// beforeConsume runs ahead of the conditional update, outside the lock.
	beforeConsume func()
}

func newMemStore() *memStore {
	return &memStore{creds: map[string]*entity.Credential{}}
}

func cloneCredential(c *entity.Credential) *entity.Credential {
	out := *c
	out.EncryptedSecret = slices.Clone(c.EncryptedSecret)
	out.Metadata = c.Metadata.Clone()
	out.BackupCodes = make([]entity.BackupCode, len(c.BackupCodes))
	for i, bc := range c.BackupCodes {
		bc.EncryptedValue = slices.Clone(bc.EncryptedValue)
		if bc.UsedAt != nil {
			t := *bc.UsedAt
			bc.UsedAt = &t
		}
		out.BackupCodes[i] = bc
	}
	return &out
}

// mutate edits a stored credential in place, for corruption scenarios.
func (m *memStore) mutate(id string, fn func(c *entity.Credential)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.creds[id])
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creds)
}

func (m *memStore) activeLocked(companyID, externalUserID string) *entity.Credential {
	for _, c := range m.creds {
		if c.CompanyID == companyID && c.ExternalUserID == externalUserID && c.IsActive() {
			return c
		}
	}
	return nil
}

func (m *memStore) ownedLocked(companyID, id string) *entity.Credential {
	c, ok := m.creds[id]
	if !ok || c.CompanyID != companyID {
		return nil
	}
	return c
}

func (m *memStore) GetCredential(_ context.Context, companyID, id string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ownedLocked(companyID, id)
	if c == nil {
		return nil, goerror.ErrNotFound
	}
	return cloneCredential(c), nil
}

func (m *memStore) GetCredentialByExternalUserID(_ context.Context, companyID, externalUserID string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.activeLocked(companyID, externalUserID); c != nil {
		return cloneCredential(c), nil
	}

	var latest *entity.Credential
	for _, c := range m.creds {
		if c.CompanyID != companyID || c.ExternalUserID != externalUserID {
			continue
		}
		if latest == nil || c.UpdatedAt.After(latest.UpdatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	return cloneCredential(latest), nil
}

func (m *memStore) GetActiveCredential(_ context.Context, companyID, externalUserID string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.activeLocked(companyID, externalUserID)
	if c == nil {
		return nil, goerror.ErrNotFound
	}
	return cloneCredential(c), nil
}

func (m *memStore) ListCredentials(_ context.Context, f entity.CredentialListFilter) ([]entity.Credential, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []entity.Credential
	for _, c := range m.creds {
		if c.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != entity.CredentialStatusUnknown && c.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.HasPrefix(c.ExternalUserID, f.Search) {
			continue
		}
		cc := cloneCredential(c)
		cc.BackupCodes = nil
		all = append(all, *cc)
	}

	slices.SortFunc(all, func(a, b entity.Credential) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	total := int64(len(all))
	start := min(int(f.Offset), len(all))
	end := min(start+int(f.Size), len(all))
	return all[start:end], total, nil
}

func (m *memStore) NewCredential(_ context.Context, cred entity.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeLocked(cred.CompanyID, cred.ExternalUserID) != nil {
		return goerror.ErrConflict
	}
	m.creds[cred.ID] = cloneCredential(&cred)
	return nil
}

func (m *memStore) UpdateCredential(_ context.Context, companyID, id string, p entity.CredentialPatch) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ownedLocked(companyID, id)
	if c == nil {
		return nil, goerror.ErrNotFound
	}

	if p.ExternalUserID != nil && *p.ExternalUserID != c.ExternalUserID && c.IsActive() {
		if m.activeLocked(companyID, *p.ExternalUserID) != nil {
			return nil, goerror.ErrConflict
		}
	}

	if p.ExternalUserID != nil {
		c.ExternalUserID = *p.ExternalUserID
	}
	if p.Metadata != nil {
		c.Metadata = p.Metadata.Clone()
	}
	c.UpdatedAt = p.UpdatedAt
	return cloneCredential(c), nil
}

func (m *memStore) RevokeCredential(_ context.Context, companyID, id string, at time.Time) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ownedLocked(companyID, id)
	if c == nil || !c.IsActive() {
		return nil, goerror.ErrNotFound
	}

	c.Status = entity.CredentialStatusRevoked
	c.RevokedAt = &at
	c.UpdatedAt = at
	return cloneCredential(c), nil
}

func (m *memStore) DeleteCredential(_ context.Context, companyID, id string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ownedLocked(companyID, id)
	if c == nil {
		return nil, goerror.ErrNotFound
	}
	delete(m.creds, id)
	return c, nil
}

func (m *memStore) ReplaceBackupCodes(_ context.Context, companyID, credentialID string, codes []entity.BackupCode, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ownedLocked(companyID, credentialID)
	if c == nil || !c.IsActive() {
		return goerror.ErrNotFound
	}

	c.BackupCodes = cloneCredential(&entity.Credential{BackupCodes: codes}).BackupCodes
	c.UpdatedAt = at
	return nil
}

func (m *memStore) ConsumeBackupCode(_ context.Context, credentialID string, codeID int64, at time.Time) (bool, error) {
	if m.beforeConsume != nil {
		m.beforeConsume()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.creds[credentialID]
	if !ok || c.Status != entity.CredentialStatusActive {
		return false, nil
	}
	for i := range c.BackupCodes {
		bc := &c.BackupCodes[i]
		if bc.ID == codeID && bc.UsedAt == nil {
			bc.UsedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) TouchLastUsed(_ context.Context, companyID, credentialID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.ownedLocked(companyID, credentialID); c != nil {
		c.LastUsedAt = &at
	}
	return nil
}

type mockAuditSink struct {
	mock.Mock
}

func (m *mockAuditSink) PublishAuditEvent(ctx context.Context, ev entity.AuditEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockAuditSink) events() []entity.AuditEvent {
	var out []entity.AuditEvent
	for _, c := range m.Calls {
		if c.Method == "PublishAuditEvent" {
			out = append(out, c.Arguments.Get(1).(entity.AuditEvent))
		}
	}
	return out
}

func (m *mockAuditSink) last() entity.AuditEvent {
	evs := m.events()
	if len(evs) == 0 {
		return entity.AuditEvent{}
	}
	return evs[len(evs)-1]
}

type memCache struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemCache() *memCache {
	return &memCache{counts: map[string]int64{}}
}

func (c *memCache) IncrFailedAttempts(_ context.Context, companyID, externalUserID string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[companyID+"/"+externalUserID]++
	return c.counts[companyID+"/"+externalUserID], nil
}

func (c *memCache) ResetFailedAttempts(_ context.Context, companyID, externalUserID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, companyID+"/"+externalUserID)
	return nil
}

type memIdempotency struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{states: map[string]idempotency.State{}}
}

func (m *memIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.states[key]; ok {
		return st, nil
	}
	m.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (m *memIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateCompleted
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	state, err := m.Acquire(ctx, key, time.Minute)
	if err != nil {
		return err
	}
	switch state {
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		_ = m.Release(ctx, key)
		return err
	}
	return m.MarkCompleted(ctx, key, 0)
}
