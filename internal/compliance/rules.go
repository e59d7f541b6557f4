package compliance

import (
	"bytes"
	"strings"
)

// Rule identifies one governance rule.
type Rule string

// Governance rules evaluated for every item.
const (
	RuleThumbnail   Rule = "thumbnail"
	RuleDescription Rule = "description"
	RuleLicense     Rule = "license"
)

// ItemEvidence is what the rules inspect for one item.
type ItemEvidence struct {
	Thumbnail   []byte
	Description string
	LicenseInfo string
}

// Policy holds the reference values the rules compare against.
type Policy struct {
	ReferenceThumbnail       []byte
	MinimumDescriptionLength int
	LicenseText              string
}

// Evaluate returns the rules the evidence violates, in rule order.
func (policy Policy) Evaluate(evidence ItemEvidence) []Rule {
	violations := []Rule{}
	if !bytes.Equal(evidence.Thumbnail, policy.ReferenceThumbnail) {
		violations = append(violations, RuleThumbnail)
	}
	description := strings.TrimSpace(evidence.Description)
	if len(description) == 0 || len([]rune(description)) <= policy.MinimumDescriptionLength {
		violations = append(violations, RuleDescription)
	}
	if len(evidence.LicenseInfo) == 0 || evidence.LicenseInfo != policy.LicenseText {
		violations = append(violations, RuleLicense)
	}
	return violations
}
