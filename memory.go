package memberkit

import (
	"context"
	"sync"
)

// MemoryStore is an in-process RoleStore, ApprovalStore and PreferenceStore.
// It backs tests and single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	roles    map[string][]Role
	records  map[string]ApprovalRecord
	views    map[string]DashboardView
	roleErr  error
	recErr   error
	prefsErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:   make(map[string][]Role),
		records: make(map[string]ApprovalRecord),
		views:   make(map[string]DashboardView),
	}
}

// SetRoles replaces the role rows for principalID.
func (m *MemoryStore) SetRoles(principalID string, roles ...Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[principalID] = append([]Role(nil), roles...)
}

// SetRegistrationStatus stores a registration record for principalID.
func (m *MemoryStore) SetRegistrationStatus(principalID string, status RegistrationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[principalID] = ApprovalRecord{RegistrationStatus: string(status)}
}

// DeleteRecord removes the registration record for principalID.
func (m *MemoryStore) DeleteRecord(principalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, principalID)
}

// FailRoles makes FetchRoles return err until cleared with nil.
func (m *MemoryStore) FailRoles(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleErr = err
}

// FailRecords makes FetchApprovalRecord return err until cleared with nil.
func (m *MemoryStore) FailRecords(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recErr = err
}

// FailPreferences makes both preference calls return err until cleared with nil.
func (m *MemoryStore) FailPreferences(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefsErr = err
}

// FetchRoles implements RoleStore.
func (m *MemoryStore) FetchRoles(ctx context.Context, principalID string) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.roleErr != nil {
		return nil, m.roleErr
	}
	return append([]Role(nil), m.roles[principalID]...), nil
}

// FetchApprovalRecord implements ApprovalStore.
func (m *MemoryStore) FetchApprovalRecord(ctx context.Context, principalID string) (*ApprovalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.recErr != nil {
		return nil, m.recErr
	}
	rec, ok := m.records[principalID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// DashboardView implements PreferenceStore.
func (m *MemoryStore) DashboardView(ctx context.Context, principalID string) (DashboardView, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.prefsErr != nil {
		return "", false, m.prefsErr
	}
	v, ok := m.views[principalID]
	return v, ok, nil
}

// SetDashboardView implements PreferenceStore.
func (m *MemoryStore) SetDashboardView(ctx context.Context, principalID string, view DashboardView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefsErr != nil {
		return m.prefsErr
	}
	m.views[principalID] = view
	return nil
}
