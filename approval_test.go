package memberkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRegistrationStatus(t *testing.T) {
	tests := []struct {
		in   string
		want RegistrationStatus
	}{
		{"approved", StatusApproved},
		{" APPROVED ", StatusApproved},
		{"rejected", StatusRejected},
		{"pending", StatusPending},
		{"waitlisted", StatusPending},
		{"", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRegistrationStatus(tt.in))
		})
	}
}

func TestRegistrationStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, StatusNotRegistered.Valid())
	assert.False(t, RegistrationStatus("maybe").Valid())
}

func TestApprovalOutcome(t *testing.T) {
	tests := []struct {
		name     string
		approval Approval
		want     ApprovalOutcome
	}{
		{"approved", Approval{true, StatusApproved}, OutcomeApproved},
		{"admin bypass", Approval{true, StatusNotRegistered}, OutcomeApproved},
		{"pending", Approval{false, StatusPending}, OutcomePending},
		{"rejected", Approval{false, StatusRejected}, OutcomeRejected},
		{"not registered", Approval{false, StatusNotRegistered}, OutcomeNotRegistered},
		{"zero", Approval{}, OutcomeNotRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.approval.Outcome())
		})
	}
}
