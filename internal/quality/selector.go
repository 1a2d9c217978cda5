package quality

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Policy names a filter selection policy.
type Policy string

const (
	PolicyDefault    Policy = "default"
	PolicyAnalytical Policy = "analytical"
	PolicyPolynomial Policy = "polynomial"
	PolicyAdaptive   Policy = "adaptive"
)

// ParsePolicy parses a policy name case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDefault, PolicyAnalytical, PolicyPolynomial, PolicyAdaptive:
		return p, nil
	case "":
		return PolicyAdaptive, nil
	default:
		return "", errUnknown("filter policy", s)
	}
}

// FilterSelector chooses concrete filter parameters for a page.
type FilterSelector interface {
	Select(ctx context.Context, f model.ImagePropertyFeatures) (model.FilterParameters, error)
	Policy() Policy
}

// SelectorDeps carries what each policy may need. Only the fields the
// chosen policy uses must be set.
type SelectorDeps struct {
	Presets   Presets
	Threshold *ThresholdAnalyzer
	Predictor *ParameterPredictor
	Analyzer  Analyzer
}

// NewFilterSelector binds a policy once. A policy whose dependency is
// missing fails with model.ErrInvalidModel.
func NewFilterSelector(policy Policy, deps SelectorDeps) (FilterSelector, error) {
	switch policy {
	case PolicyDefault:
		params, err := deps.Presets.Materialize(deps.Presets.Default)
		if err != nil {
			return nil, err
		}
		return &defaultSelector{params: params}, nil
	case PolicyAnalytical:
		if deps.Threshold == nil {
			return nil, missingDep(policy, "threshold analyzer")
		}
		return &analyzerSelector{policy: policy, analyzer: deps.Threshold}, nil
	case PolicyPolynomial:
		if deps.Predictor == nil {
			return nil, missingDep(policy, "parameter predictor")
		}
		return &polynomialSelector{pred: deps.Predictor}, nil
	case PolicyAdaptive:
		if deps.Analyzer == nil {
			return nil, missingDep(policy, "analyzer")
		}
		return &analyzerSelector{policy: policy, analyzer: deps.Analyzer}, nil
	default:
		return nil, errUnknown("filter policy", string(policy))
	}
}

type defaultSelector struct {
	params model.FilterParameters
}

func (s *defaultSelector) Policy() Policy { return PolicyDefault }

func (s *defaultSelector) Select(ctx context.Context, _ model.ImagePropertyFeatures) (model.FilterParameters, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	return s.params, nil
}

// analyzerSelector serves both analytical and adaptive policies; they
// differ only in which analyzer is bound.
type analyzerSelector struct {
	policy   Policy
	analyzer Analyzer
}

func (s *analyzerSelector) Policy() Policy { return s.policy }

func (s *analyzerSelector) Select(ctx context.Context, f model.ImagePropertyFeatures) (model.FilterParameters, error) {
	qa, err := s.analyzer.Assess(ctx, f)
	if err != nil {
		return nil, err
	}
	if qa.Parameters == nil {
		return model.NoFilter{}, nil
	}
	return qa.Parameters, nil
}

type polynomialSelector struct {
	pred *ParameterPredictor
}

func (s *polynomialSelector) Policy() Policy { return PolicyPolynomial }

func (s *polynomialSelector) Select(ctx context.Context, f model.ImagePropertyFeatures) (model.FilterParameters, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	p, err := s.pred.PredictAll(f)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func missingDep(p Policy, what string) error {
	return eris.Wrapf(model.ErrInvalidModel, "quality: %s policy requires a %s", p, what)
}

func errUnknown(kind, name string) error {
	return eris.Errorf("quality: unknown %s %q", kind, name)
}
