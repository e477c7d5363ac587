package access

import (
	"context"
	"testing"
	"time"
)

func addPermission(t *testing.T, f *engineFixture, id string, expiresAt *time.Time, active bool) {
	t.Helper()

	err := f.permissions.Add(context.Background(), &AccessPermission{
		ID:           id,
		SubjectID:    "client-1",
		ResourceType: ResourceDocument,
		ResourceID:   "doc-1",
		GrantedBy:    "admin-1",
		Reason:       "review",
		GrantedAt:    time.Now().UTC(),
		ExpiresAt:    expiresAt,
		Active:       active,
	})
	if err != nil {
		t.Fatalf("Failed to add permission %s: %v", id, err)
	}
}

func TestFindActiveNoPermission(t *testing.T) {
	f := setupEngine(t)

	permission, err := f.permissions.FindActive(context.Background(), "client-1", ResourceDocument, "doc-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("FindActive() failed: %v", err)
	}
	if permission != nil {
		t.Error("Expected nil when no permission exists")
	}
}

func TestFindActivePermanentGrant(t *testing.T) {
	f := setupEngine(t)
	addPermission(t, f, "perm-1", nil, true)

	permission, err := f.permissions.FindActive(context.Background(), "client-1", ResourceDocument, "doc-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("FindActive() failed: %v", err)
	}
	if permission == nil {
		t.Fatal("Expected the permanent grant to be found")
	}
	if permission.ID != "perm-1" {
		t.Errorf("Expected perm-1, got %s", permission.ID)
	}
}

func TestFindActiveSkipsExpired(t *testing.T) {
	f := setupEngine(t)

	asOf := time.Now().UTC()
	past := asOf.Add(-time.Hour)
	addPermission(t, f, "perm-expired", &past, true)

	permission, err := f.permissions.FindActive(context.Background(), "client-1", ResourceDocument, "doc-1", asOf)
	if err != nil {
		t.Fatalf("FindActive() failed: %v", err)
	}
	if permission != nil {
		t.Error("Expired permission should behave as if it never existed")
	}
}

func TestFindActiveNewerExpiredDoesNotShadowOlderValid(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	asOf := time.Now().UTC()
	longLived := asOf.Add(48 * time.Hour)
	err := f.permissions.Add(ctx, &AccessPermission{
		ID:           "perm-old-valid",
		SubjectID:    "client-1",
		ResourceType: ResourceDocument,
		ResourceID:   "doc-1",
		GrantedBy:    "admin-1",
		Reason:       "long review",
		GrantedAt:    asOf.Add(-2 * time.Hour),
		ExpiresAt:    &longLived,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Failed to add permission: %v", err)
	}

	lapsed := asOf.Add(-time.Minute)
	err = f.permissions.Add(ctx, &AccessPermission{
		ID:           "perm-new-expired",
		SubjectID:    "client-1",
		ResourceType: ResourceDocument,
		ResourceID:   "doc-1",
		GrantedBy:    "admin-1",
		Reason:       "short peek",
		GrantedAt:    asOf.Add(-time.Hour),
		ExpiresAt:    &lapsed,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Failed to add permission: %v", err)
	}

	permission, err := f.permissions.FindActive(ctx, "client-1", ResourceDocument, "doc-1", asOf)
	if err != nil {
		t.Fatalf("FindActive() failed: %v", err)
	}
	if permission == nil {
		t.Fatal("The older still-valid grant should be found")
	}
	if permission.ID != "perm-old-valid" {
		t.Errorf("Expected perm-old-valid, got %s", permission.ID)
	}
}

func TestFindActiveSkipsDeactivated(t *testing.T) {
	f := setupEngine(t)
	addPermission(t, f, "perm-1", nil, true)

	if err := f.permissions.Deactivate(context.Background(), "perm-1"); err != nil {
		t.Fatalf("Deactivate() failed: %v", err)
	}

	permission, err := f.permissions.FindActive(context.Background(), "client-1", ResourceDocument, "doc-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("FindActive() failed: %v", err)
	}
	if permission != nil {
		t.Error("Deactivated permission should not be found")
	}
}

func TestPermissionGetByID(t *testing.T) {
	f := setupEngine(t)
	addPermission(t, f, "perm-1", nil, true)

	permission, err := f.permissions.GetByID(context.Background(), "perm-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if permission == nil || permission.GrantedBy != "admin-1" {
		t.Error("Expected the stored permission to round-trip")
	}

	missing, err := f.permissions.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown permission ID")
	}
}

func TestExpiredAt(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	permanent := &AccessPermission{}
	if permanent.ExpiredAt(now) {
		t.Error("Permission without expiry should never lapse")
	}

	lapsed := &AccessPermission{ExpiresAt: &past}
	if !lapsed.ExpiredAt(now) {
		t.Error("Permission past its expiry should be lapsed")
	}

	valid := &AccessPermission{ExpiresAt: &future}
	if valid.ExpiredAt(now) {
		t.Error("Permission before its expiry should not be lapsed")
	}
}
