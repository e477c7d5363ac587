package access

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// seedAuditEntries writes total entries into the window starting at base,
// of which denials are denied and violations of those carry an error detail.
func seedAuditEntries(t *testing.T, f *engineFixture, base time.Time, total, denials, violations int) {
	t.Helper()

	ctx := context.Background()
	for i := 0; i < total; i++ {
		entry := &AuditLogEntry{
			ID:           fmt.Sprintf("entry-%d", i),
			SubjectID:    "subject-1",
			ResourceType: ResourceDocument,
			ResourceID:   fmt.Sprintf("doc-%d", i),
			Action:       ActionDownload,
			Purpose:      "testing",
			Granted:      i >= denials,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
		}
		if i < violations {
			entry.Detail = "subject lookup failed: database is locked"
		} else if i < denials {
			entry.Reason = "document unavailable"
		}
		if err := f.audit.Add(ctx, entry); err != nil {
			t.Fatalf("Failed to seed audit entry: %v", err)
		}
	}
}

func TestComplianceReportScore(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// 100 accesses, 8 denied, 5 of those failures
	seedAuditEntries(t, f, base, 100, 8, 5)

	report, err := f.engine.GenerateComplianceReport(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.TotalAccesses != 100 {
		t.Errorf("Expected 100 total accesses, got %d", report.TotalAccesses)
	}
	if report.DeniedAccesses != 8 {
		t.Errorf("Expected 8 denied accesses, got %d", report.DeniedAccesses)
	}
	if report.Violations != 5 {
		t.Errorf("Expected 5 violations, got %d", report.Violations)
	}
	if report.ComplianceScore != 95 {
		t.Errorf("Expected score 95, got %d", report.ComplianceScore)
	}
	if report.AccessesByType[ResourceDocument] != 100 {
		t.Errorf("Expected 100 document accesses, got %d", report.AccessesByType[ResourceDocument])
	}
	if report.UniqueSubjects != 1 {
		t.Errorf("Expected 1 unique subject, got %d", report.UniqueSubjects)
	}
	// Score 95 meets the threshold and denials are below 10%
	if len(report.Recommendations) != 0 {
		t.Errorf("Expected no recommendations, got %v", report.Recommendations)
	}
}

func TestComplianceReportPolicyDenialsAreNotViolations(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	// Denials with a policy reason but no error detail, such as attempts
	// against revoked or expired documents.
	for i := 0; i < 2; i++ {
		entry := &AuditLogEntry{
			ID:           fmt.Sprintf("denied-%d", i),
			SubjectID:    "subject-1",
			ResourceType: ResourceDocument,
			ResourceID:   "doc-1",
			Action:       ActionDownload,
			Purpose:      "testing",
			Granted:      false,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			Reason:       "document unavailable",
		}
		if err := f.audit.Add(ctx, entry); err != nil {
			t.Fatalf("Failed to seed audit entry: %v", err)
		}
	}

	report, err := f.engine.GenerateComplianceReport(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.DeniedAccesses != 2 {
		t.Errorf("Expected 2 denied accesses, got %d", report.DeniedAccesses)
	}
	if report.Violations != 0 {
		t.Errorf("Policy-correct denials must not count as violations, got %d", report.Violations)
	}
	if report.ComplianceScore != 100 {
		t.Errorf("Expected score 100, got %d", report.ComplianceScore)
	}
}

func TestComplianceReportAccessStatistics(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	seed := []struct {
		subjectID    string
		resourceType string
	}{
		{"subject-1", ResourceDocument},
		{"subject-1", ResourceDocument},
		{"subject-2", ResourceAuditLog},
		{"subject-3", ResourceDocument},
	}
	for i, s := range seed {
		entry := &AuditLogEntry{
			ID:           fmt.Sprintf("entry-%d", i),
			SubjectID:    s.subjectID,
			ResourceType: s.resourceType,
			ResourceID:   "res-1",
			Action:       ActionRead,
			Purpose:      "testing",
			Granted:      true,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
		}
		if err := f.audit.Add(ctx, entry); err != nil {
			t.Fatalf("Failed to seed audit entry: %v", err)
		}
	}

	report, err := f.engine.GenerateComplianceReport(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.AccessesByType[ResourceDocument] != 3 {
		t.Errorf("Expected 3 document accesses, got %d", report.AccessesByType[ResourceDocument])
	}
	if report.AccessesByType[ResourceAuditLog] != 1 {
		t.Errorf("Expected 1 audit log access, got %d", report.AccessesByType[ResourceAuditLog])
	}
	if report.UniqueSubjects != 3 {
		t.Errorf("Expected 3 unique subjects, got %d", report.UniqueSubjects)
	}
}

func TestComplianceReportEmptyWindow(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	report, err := f.engine.GenerateComplianceReport(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.TotalAccesses != 0 {
		t.Errorf("Expected 0 total accesses, got %d", report.TotalAccesses)
	}
	if report.ComplianceScore != 100 {
		t.Errorf("Expected score 100 for an empty window, got %d", report.ComplianceScore)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("Expected no recommendations, got %v", report.Recommendations)
	}
}

func TestComplianceReportLowScoreRecommendation(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// 10 accesses, 1 denied and it is a failure: score 90
	seedAuditEntries(t, f, base, 10, 1, 1)

	report, err := f.engine.GenerateComplianceReport(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.ComplianceScore != 90 {
		t.Errorf("Expected score 90, got %d", report.ComplianceScore)
	}
	if len(report.Recommendations) == 0 {
		t.Error("Score below 95 should trigger a recommendation")
	}
}

func TestComplianceReportHighDenialRateRecommendation(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// 20 accesses, 5 policy-correct denials, no failures: score stays 100
	seedAuditEntries(t, f, base, 20, 5, 0)

	report, err := f.engine.GenerateComplianceReport(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}

	if report.ComplianceScore != 100 {
		t.Errorf("Expected score 100, got %d", report.ComplianceScore)
	}
	if report.Violations != 0 {
		t.Errorf("Policy-correct denials are not violations, got %d", report.Violations)
	}
	if len(report.Recommendations) == 0 {
		t.Error("Denials above 10% should trigger a recommendation")
	}
}

func TestComplianceReportWindowBoundaries(t *testing.T) {
	f := setupEngine(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	seedAuditEntries(t, f, base, 10, 0, 0)

	// Window covering only the first 5 entries
	report, err := f.engine.GenerateComplianceReport(context.Background(), base, base.Add(4*time.Second))
	if err != nil {
		t.Fatalf("GenerateComplianceReport() failed: %v", err)
	}
	if report.TotalAccesses != 5 {
		t.Errorf("Expected 5 accesses inside the window, got %d", report.TotalAccesses)
	}
}
