package memberkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEntryToModel(t *testing.T) {
	entry := &AuditEntry{
		ActorID:       "admin1",
		Action:        AuditActionAssigned,
		TargetUserID:  "u1",
		Role:          RoleEventsAdmin,
		ActorRoles:    []Role{RoleGeneralAdmin},
		PreviousRoles: []Role{RoleMember},
		NewRoles:      []Role{RoleEventsAdmin, RoleMember},
		IPAddress:     "203.0.113.9",
		UserAgent:     "curl/8",
		RequestID:     "req-1",
	}

	m := entry.ToModel()
	assert.Equal(t, "admin1", m.ActorID)
	assert.Equal(t, "assigned", m.Action)
	assert.Equal(t, "events_admin", m.Role)
	assert.Empty(t, m.Status)
	assert.Equal(t, []string{"general_admin"}, m.ActorRoles)
	assert.Equal(t, []string{"member"}, m.PreviousRoles)
	assert.Equal(t, []string{"events_admin", "member"}, m.NewRoles)
	assert.Equal(t, "req-1", m.RequestID)
	assert.False(t, m.Timestamp.IsZero())
}

func TestAuditEntryToModelWithoutRoles(t *testing.T) {
	m := (&AuditEntry{Action: AuditActionApproved, Status: StatusApproved}).ToModel()
	assert.Nil(t, m.ActorRoles)
	assert.Nil(t, m.NewRoles)
	assert.Equal(t, "approved", m.Status)
}

func TestAuditActionForStatus(t *testing.T) {
	assert.Equal(t, AuditActionApproved, auditActionForStatus(StatusApproved))
	assert.Equal(t, AuditActionRejected, auditActionForStatus(StatusRejected))
	assert.Equal(t, AuditActionReopened, auditActionForStatus(StatusPending))
}

func TestMemberStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, (&Member{RegistrationStatus: "approved"}).Status())
	assert.Equal(t, StatusPending, (&Member{RegistrationStatus: "unknown"}).Status())
}

func TestPoolConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{"defaults", DefaultPoolConfig(), false},
		{"zero open", PoolConfig{MaxOpenConnections: 0}, true},
		{"negative idle", PoolConfig{MaxOpenConnections: 5, MaxIdleConnections: -1}, true},
		{"idle above open", PoolConfig{MaxOpenConnections: 5, MaxIdleConnections: 6}, true},
		{"idle equals open", PoolConfig{MaxOpenConnections: 5, MaxIdleConnections: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
