package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLeadStatus(t *testing.T) {
	assert.Equal(t, "CONVERTED", NormalizeLeadStatus("  converted "))
	assert.Equal(t, "", NormalizeLeadStatus("   "))
}

func TestIsConvertedStatus(t *testing.T) {
	assert.True(t, IsConvertedStatus("won"))
	assert.True(t, IsConvertedStatus("CONVERTED"))
	assert.False(t, IsConvertedStatus("contacted"))
}

func TestEmployeeRoles(t *testing.T) {
	e := &Employee{Role: RoleSales}
	assert.True(t, e.HasRole(SalesRoles...))
	assert.False(t, e.HasRole(RoleAdmin))
	assert.True(t, IsValidRole("superadmin"))
	assert.False(t, IsValidRole("vendor"))
}

func TestEmployeeLockout(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	e := &Employee{LockoutUntil: &until}
	assert.True(t, e.IsLockedOut(now))
	assert.False(t, e.IsLockedOut(until.Add(time.Second)))
	assert.False(t, (&Employee{}).IsLockedOut(now))
}

func TestAuditLogChanges(t *testing.T) {
	a := &AuditLog{
		OldValues: `{"name":"Phones","slug":"phones"}`,
		NewValues: `{"name":"Mobiles","slug":"phones","is_active":true}`,
	}
	changes := a.Changes()
	assert.Len(t, changes, 2)
	assert.Equal(t, "is_active", changes[0].Field)
	assert.Equal(t, "name", changes[1].Field)
	assert.Equal(t, "Mobiles", changes[1].New)
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now}
	assert.True(t, s.IsExpired(now))
	assert.False(t, s.IsExpired(now.Add(-time.Second)))
}

func TestAuditLogChangesAddedFieldAndInvalidJSON(t *testing.T) {
	entry := &AuditLog{
		OldValues: `{"name":"TV","is_active":true}`,
		NewValues: `{"name":"Televisions","is_active":true,"slug":"televisions"}`,
	}
	changes := entry.Changes()
	assert.Equal(t, []AuditChange{
		{Field: "name", Old: "TV", New: "Televisions"},
		{Field: "slug", Old: nil, New: "televisions"},
	}, changes)

	assert.Empty(t, (&AuditLog{OldValues: "not json"}).Changes())
}
