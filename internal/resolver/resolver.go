package resolver

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/classifier"
	"github.com/spec-kit/complaint-portal/internal/domain"
)

const (
	// OverrideThreshold is the classifier confidence below which keyword
	// rules take precedence over the reported category.
	OverrideThreshold = 70.0

	// MinDescriptionLength is the shortest description that is worth sending
	// to the classifier at all.
	MinDescriptionLength = 5
)

// KeywordRule maps a set of lowercase substrings to a department. Rules are
// evaluated in order; the first rule with any matching term wins.
type KeywordRule struct {
	Terms      []string
	Department domain.Department
}

// DefaultRules returns the built-in keyword rules in priority order.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{Terms: []string{"electric", "power", "light"}, Department: domain.DepartmentElectricity},
		{Terms: []string{"road", "pothole", "traffic"}, Department: domain.DepartmentPublicWorks},
		{Terms: []string{"water", "pipe"}, Department: domain.DepartmentWater},
		{Terms: []string{"garbage", "waste", "drain", "sewage"}, Department: domain.DepartmentSanitation},
		{Terms: []string{"tree", "park", "garden"}, Department: domain.DepartmentGardening},
	}
}

// Resolution is the final department assignment for a complaint.
type Resolution struct {
	Department domain.Department
	Confidence float64
}

// Resolver combines the external classifier with keyword fallback rules to
// assign a department to free-text descriptions. It never fails: classifier
// errors degrade to the generic department.
type Resolver struct {
	classifier classifier.Classifier
	rules      []KeywordRule
	logger     *zap.Logger
}

// New constructs a resolver. A nil rule slice falls back to DefaultRules.
func New(cls classifier.Classifier, rules []KeywordRule, logger *zap.Logger) *Resolver {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{classifier: cls, rules: rules, logger: logger}
}

// Resolve assigns a department and confidence to the description. Texts
// shorter than MinDescriptionLength are not classified and get the generic
// department with confidence 0.
func (r *Resolver) Resolve(ctx context.Context, description string) Resolution {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return Resolution{Department: domain.DepartmentGeneral, Confidence: 0}
	}

	candidate := Resolution{Department: domain.DepartmentGeneral, Confidence: 0}
	if r.classifier != nil {
		prediction, err := r.classifier.Classify(ctx, description)
		if err != nil {
			r.logger.Warn("classifier unavailable, using fallback", zap.Error(err))
		} else if prediction.Category != "" {
			candidate = Resolution{
				Department: domain.Department(prediction.Category),
				Confidence: prediction.Confidence,
			}
		}
	}

	if candidate.Confidence < OverrideThreshold {
		if dept, ok := matchKeywords(description, r.rules); ok {
			candidate.Department = dept
		}
	}
	return candidate
}

// matchKeywords scans the lowercased text against the rules in order and
// returns the first department whose terms match as substrings.
func matchKeywords(text string, rules []KeywordRule) (domain.Department, bool) {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, term := range rule.Terms {
			if strings.Contains(lower, term) {
				return rule.Department, true
			}
		}
	}
	return "", false
}
