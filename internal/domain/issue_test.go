package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumValidity(t *testing.T) {
	assert.True(t, SeverityCritical.Valid())
	assert.False(t, Severity("urgent").Valid())
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("critical").Valid())
	assert.True(t, IssueStatusInProgress.Valid())
	assert.False(t, IssueStatus("done").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestNewStatusCounts(t *testing.T) {
	counts := NewStatusCounts()
	assert.Len(t, counts, 4)
	for _, s := range IssueStatuses {
		assert.Zero(t, counts[s])
	}
}
