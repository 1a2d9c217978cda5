package extraction

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/model"
)

// Mode is the arbitration policy between strategy results.
type Mode int

const (
	// ModeBestStrategy uses only the top-ranked strategy.
	ModeBestStrategy Mode = iota
	// ModeMergeAll folds every qualifying strategy's fields in rank order.
	ModeMergeAll
	// ModeComplement fills the gaps of caller-supplied fields.
	ModeComplement
)

var modeNames = map[Mode]string{
	ModeBestStrategy: "best_strategy",
	ModeMergeAll:     "merge_all",
	ModeComplement:   "complement",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode parses a mode name such as "best", "merge_all" or "complement".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)) {
	case "", "best", "beststrategy":
		return ModeBestStrategy, nil
	case "merge", "mergeall":
		return ModeMergeAll, nil
	case "complement":
		return ModeComplement, nil
	default:
		return ModeBestStrategy, eris.Errorf("extraction: unknown mode %q", s)
	}
}

// Outcome is the detailed result of one orchestration run.
type Outcome struct {
	// Fields is nil when no strategy produced anything.
	Fields   *model.ExtractedFields     `json:"fields"`
	Rankings []model.StrategyConfidence `json:"rankings"`
	// Contributors are the strategies whose output was used, in rank order.
	Contributors []string `json:"contributors"`
	// Agreement is the mean similarity of each contributor's scalar fields
	// to the final fields, in [0,1].
	Agreement float64 `json:"agreement"`
}

// Orchestrator ranks strategies and arbitrates their results. The strategy
// list is fixed at construction and safe for concurrent runs.
type Orchestrator struct {
	strategies  []Strategy
	comparer    *compare.Comparer
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency bounds concurrent strategy calls. Zero or less means one
// goroutine per strategy.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithComparer sets the comparer used for agreement scoring.
func WithComparer(c *compare.Comparer) Option {
	return func(o *Orchestrator) { o.comparer = c }
}

// NewOrchestrator creates an Orchestrator over strategies in registration order.
func NewOrchestrator(strategies []Strategy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategies: append([]Strategy(nil), strategies...),
		comparer:   compare.NewComparer(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Strategies returns the registered strategy names in order.
func (o *Orchestrator) Strategies() []string {
	names := make([]string, len(o.strategies))
	for i, s := range o.strategies {
		names[i] = s.Name()
	}
	return names
}

func (o *Orchestrator) limit() int {
	if o.concurrency > 0 {
		return o.concurrency
	}
	return max(len(o.strategies), 1)
}

// GetStrategyConfidences queries every strategy concurrently and returns the
// scores sorted by confidence, highest first, ties in registration order.
func (o *Orchestrator) GetStrategyConfidences(ctx context.Context, text string) ([]model.StrategyConfidence, error) {
	ranked, err := o.rank(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]model.StrategyConfidence, len(ranked))
	for i, r := range ranked {
		out[i] = model.StrategyConfidence{StrategyName: r.strategy.Name(), Confidence: r.confidence}
	}
	return out, nil
}

// ranked is one strategy's ranking result. evaluated marks fields as
// already extracted by an Evaluator during ranking.
type ranked struct {
	strategy   Strategy
	confidence int
	fields     *model.ExtractedFields
	evaluated  bool
}

func (o *Orchestrator) rank(ctx context.Context, text string) ([]ranked, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	out := make([]ranked, len(o.strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit())
	for i, s := range o.strategies {
		g.Go(func() error {
			if ev, ok := s.(Evaluator); ok {
				f, conf, err := ev.Evaluate(gctx, text)
				if err != nil {
					return err
				}
				out[i] = ranked{strategy: s, confidence: conf, fields: f, evaluated: true}
				return nil
			}
			conf, err := s.Confidence(gctx, text)
			if err != nil {
				return err
			}
			out[i] = ranked{strategy: s, confidence: conf}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].confidence > out[j].confidence })
	return out, nil
}

// Run returns the arbitrated fields, or nil when nothing could be extracted.
// existing is only consulted in ModeComplement.
func (o *Orchestrator) Run(ctx context.Context, text string, mode Mode, existing *model.ExtractedFields) (*model.ExtractedFields, error) {
	out, err := o.RunDetailed(ctx, text, mode, existing)
	if err != nil {
		return nil, err
	}
	return out.Fields, nil
}

// RunDetailed is Run plus rankings, contributors and agreement.
func (o *Orchestrator) RunDetailed(ctx context.Context, text string, mode Mode, existing *model.ExtractedFields) (*Outcome, error) {
	order, err := o.rank(ctx, text)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{Rankings: make([]model.StrategyConfidence, 0, len(order))}

	var qualifying []ranked
	for _, r := range order {
		outcome.Rankings = append(outcome.Rankings, model.StrategyConfidence{StrategyName: r.strategy.Name(), Confidence: r.confidence})
		if r.confidence > 0 {
			qualifying = append(qualifying, r)
		}
	}

	if mode == ModeComplement && existing.IsEmpty() {
		mode = ModeBestStrategy
	}

	var results []*model.ExtractedFields
	switch mode {
	case ModeBestStrategy:
		if len(qualifying) > 0 {
			results, err = o.extractAll(ctx, text, qualifying[:1])
		}
	case ModeMergeAll:
		results, err = o.extractAll(ctx, text, qualifying)
	case ModeComplement:
		if len(qualifying) > 0 {
			results, err = o.extractAll(ctx, text, qualifying[:1])
		}
	default:
		return nil, eris.Errorf("extraction: unsupported mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	var contributors []*model.ExtractedFields
	for i, r := range results {
		if r.IsEmpty() {
			continue
		}
		outcome.Contributors = append(outcome.Contributors, qualifying[i].strategy.Name())
		contributors = append(contributors, r)
	}

	var fields *model.ExtractedFields
	if mode == ModeComplement {
		var extracted *model.ExtractedFields
		if len(contributors) > 0 {
			extracted = contributors[0]
		}
		fields = complement(existing, extracted)
	} else {
		fields = merge(contributors...)
	}
	if fields.IsEmpty() {
		fields = nil
	}
	outcome.Fields = fields
	outcome.Agreement = o.agreement(ctx, fields, contributors)

	zap.L().Debug("extraction: run complete",
		zap.String("mode", mode.String()),
		zap.Strings("contributors", outcome.Contributors),
		zap.Int("populated", fields.PopulatedCount()),
		zap.Float64("agreement", outcome.Agreement),
	)
	return outcome, nil
}

// extractAll runs Extract on strategies concurrently, reusing fields the
// ranking pass already produced. Results keep the strategies' order
// regardless of completion order.
func (o *Orchestrator) extractAll(ctx context.Context, text string, strategies []ranked) ([]*model.ExtractedFields, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	results := make([]*model.ExtractedFields, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit())
	for i, r := range strategies {
		if r.evaluated {
			results[i] = r.fields
			continue
		}
		g.Go(func() error {
			f, err := r.strategy.Extract(gctx, text)
			if err != nil {
				return err
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// agreement scores how closely each contributor's scalars match the final
// fields. With no comparable scalar it is 1 when fields exist, else 0.
func (o *Orchestrator) agreement(ctx context.Context, fields *model.ExtractedFields, contributors []*model.ExtractedFields) float64 {
	if fields == nil {
		return 0
	}
	var sum float64
	var n int
	for _, c := range contributors {
		pairs := [][3]string{
			{compare.FieldCaseID, fields.CaseID, c.CaseID},
			{compare.FieldCause, fields.Cause, c.Cause},
			{compare.FieldRequestedAction, fields.RequestedAction, c.RequestedAction},
		}
		for _, p := range pairs {
			if isBlank(p[1]) || isBlank(p[2]) {
				continue
			}
			fc, err := o.comparer.CompareField(ctx, p[0], p[1], p[2], nil)
			if err != nil {
				continue
			}
			sum += float64(fc.Similarity)
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
