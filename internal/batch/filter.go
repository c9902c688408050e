package batch

import (
	"fmt"
	"strings"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

// Skip reason strings. Fixed so previews and audit trails are reproducible.
const (
	ReasonNoSourceDocs = "no source documents"
	ReasonNoOutputDocs = "no producible output documents"
)

// Evaluate decides whether a target is eligible under the policy. Rules
// are checked in fixed order (no-source, no-output, name-contains,
// doc-types); the first match supplies the reason. No side effects:
// identical inputs always yield identical results.
func Evaluate(target domain.Target, policy domain.SkipPolicy) (canExecute bool, reason string) {
	if policy.SkipNoSource && target.Kind == domain.TargetKindNode && target.SourceDocCount == 0 {
		return false, ReasonNoSourceDocs
	}

	if policy.SkipNoOutput && target.Kind == domain.TargetKindNode && target.OutputDocCount == 0 {
		return false, ReasonNoOutputDocs
	}

	for _, substr := range policy.SkipNameContains {
		if substr != "" && strings.Contains(target.DisplayName, substr) {
			return false, fmt.Sprintf("name contains %q", substr)
		}
	}

	if target.Kind == domain.TargetKindDocument {
		for _, docType := range policy.SkipDocTypes {
			if target.DocType == docType {
				return false, fmt.Sprintf("document type %q excluded", docType)
			}
		}
	}

	return true, ""
}
