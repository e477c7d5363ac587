package access

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ComplianceReport aggregates the audit trail over a reporting window.
type ComplianceReport struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TotalAccesses   int
	DeniedAccesses  int
	Violations      int
	ComplianceScore int
	AccessesByType  map[string]int // decision counts per resource type
	UniqueSubjects  int            // distinct identities that appear in the window
	Recommendations []string
}

const (
	// A score below this threshold triggers a review recommendation.
	scoreReviewThreshold = 95
	// Denials above this share of total accesses trigger a recommendation.
	denialRateThreshold = 0.10
)

// GenerateComplianceReport aggregates the audit log over [start, end].
// A violation is a denied access that carries a non-empty detail, i.e. a
// failure rather than a policy-correct denial. An empty window scores 100:
// no accesses means nothing to violate.
func (e *engine) GenerateComplianceReport(ctx context.Context, start, end time.Time) (*ComplianceReport, error) {
	entries, err := e.audit.QueryRange(ctx, start, end)
	if err != nil {
		e.logger.Error("Failed to query audit range for report", "error", err)
		return nil, fmt.Errorf("failed to generate compliance report: %w", err)
	}

	report := &ComplianceReport{
		PeriodStart:    start,
		PeriodEnd:      end,
		AccessesByType: make(map[string]int),
	}

	subjects := make(map[string]bool)
	for _, entry := range entries {
		report.TotalAccesses++
		report.AccessesByType[entry.ResourceType]++
		subjects[entry.SubjectID] = true
		if !entry.Granted {
			report.DeniedAccesses++
			if entry.Detail != "" {
				report.Violations++
			}
		}
	}
	report.UniqueSubjects = len(subjects)

	if report.TotalAccesses == 0 {
		report.ComplianceScore = 100
	} else {
		ratio := float64(report.TotalAccesses-report.Violations) / float64(report.TotalAccesses)
		report.ComplianceScore = int(math.Round(100 * ratio))
	}

	if report.ComplianceScore < scoreReviewThreshold {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("compliance score %d is below %d; review recent violations", report.ComplianceScore, scoreReviewThreshold))
	}
	if report.TotalAccesses > 0 && float64(report.DeniedAccesses)/float64(report.TotalAccesses) > denialRateThreshold {
		report.Recommendations = append(report.Recommendations,
			"denied accesses exceed 10% of total; review role assignments and recent grants")
	}

	e.logger.Info("Generated compliance report", "total", report.TotalAccesses, "denied", report.DeniedAccesses, "violations", report.Violations, "score", report.ComplianceScore)
	return report, nil
}
