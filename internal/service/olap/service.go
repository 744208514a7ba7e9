package olap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"duck-olap/internal/domain"
)

const defaultBatchLimit = 4

// Service runs analytical queries and drilldowns for registered subjects.
type Service struct {
	registry   *Registry
	compiler   *Compiler
	store      domain.RecordStore
	logger     *slog.Logger
	batchLimit int
	rawSQL     bool
}

// NewService creates a Service. The registry must be sealed before use.
func NewService(registry *Registry, store domain.RecordStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:   registry,
		compiler:   NewCompiler(registry),
		store:      store,
		logger:     logger,
		batchLimit: defaultBatchLimit,
	}
}

// SetBatchLimit bounds how many queries of a batch run at once.
func (s *Service) SetBatchLimit(n int) {
	if n > 0 {
		s.batchLimit = n
	}
}

// SetRawSQL allows queries and drilldowns to carry raw SQL predicates and
// aggregates. It is off by default. Registered definitions may always use
// raw SQL; this only gates fragments supplied with a request.
func (s *Service) SetRawSQL(allowed bool) { s.rawSQL = allowed }

// Registry returns the registry the service reads from.
func (s *Service) Registry() *Registry { return s.registry }

// Compile compiles a query without running it.
func (s *Service) Compile(subject string, req QueryRequest) (*Compiled, error) {
	if err := s.checkRawSQL(req.Dimensions, req.Aggregates); err != nil {
		return nil, err
	}
	compiled, err := s.compiler.Compile(subject, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("compiled olap query",
		"subject", subject,
		"dimensions", len(compiled.Dimensions),
		"joins", len(compiled.Plan.Joins),
		"groups", len(compiled.Plan.Groups),
		"overlap", compiled.Overlap)
	return compiled, nil
}

// Query compiles req, runs it against the record store and returns the cube.
func (s *Service) Query(ctx context.Context, subject string, req QueryRequest) (*Cube, error) {
	if s.store == nil {
		return nil, fmt.Errorf("olap record store is not configured")
	}
	compiled, err := s.Compile(subject, req)
	if err != nil {
		return nil, err
	}
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.store.Execute(ctx, cfg.Schema(), compiled.Plan)
	if err != nil {
		s.logger.Warn("olap query failed", "subject", subject, "error", err)
		return nil, err
	}
	cube, err := NewCubeFromCompiled(compiled, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("olap query completed",
		"subject", subject,
		"rows", len(rows),
		"duration", time.Since(start))
	return cube, nil
}

// BatchItem is one query of a batch.
type BatchItem struct {
	Subject string
	Request QueryRequest
}

// QueryBatch runs several queries concurrently. Results are in input order;
// the first failure cancels the rest.
func (s *Service) QueryBatch(ctx context.Context, items []BatchItem) ([]*Cube, error) {
	cubes := make([]*Cube, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)
	for i, item := range items {
		g.Go(func() error {
			cube, err := s.Query(gctx, item.Subject, item.Request)
			if err != nil {
				return fmt.Errorf("batch query %d: %w", i, err)
			}
			cubes[i] = cube
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cubes, nil
}

// Explanation is a compiled plan and, when the store can render it, the
// statement it would run.
type Explanation struct {
	Plan *domain.QueryPlan
	SQL  string
	Args []any
}

// Explain compiles req and renders it without running it.
func (s *Service) Explain(_ context.Context, subject string, req QueryRequest) (*Explanation, error) {
	compiled, err := s.Compile(subject, req)
	if err != nil {
		return nil, err
	}
	out := &Explanation{Plan: compiled.Plan}
	r, ok := s.store.(domain.Renderer)
	if !ok {
		return out, nil
	}
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	out.SQL, out.Args, err = r.RenderPlan(cfg.Schema(), compiled.Plan)
	if err != nil {
		return nil, fmt.Errorf("render olap plan: %w", err)
	}
	return out, nil
}

// CompileDrilldown builds the record filter for the chosen categories.
func (s *Service) CompileDrilldown(subject string, selectors []CellSelector) (*domain.Filter, error) {
	dims := make([]DimensionSpec, len(selectors))
	for i, sel := range selectors {
		dims[i] = sel.Dimension
	}
	if err := s.checkRawSQL(dims, nil); err != nil {
		return nil, err
	}
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	return CompileDrilldown(cfg.Schema(), cfg, selectors)
}

// DrilldownByName builds the record filter for a mapping of dimension name
// to category. Keys that are not registered dimensions are read as fields.
func (s *Service) DrilldownByName(subject string, mapping map[string]string) (*domain.Filter, error) {
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	return CompileDrilldown(cfg.Schema(), cfg, selectorsByName(cfg, mapping))
}

// Drilldown compiles the selectors and fetches the matching records.
func (s *Service) Drilldown(ctx context.Context, subject string, selectors []CellSelector) (*domain.RecordSet, error) {
	if s.store == nil {
		return nil, fmt.Errorf("olap record store is not configured")
	}
	filter, err := s.CompileDrilldown(subject, selectors)
	if err != nil {
		return nil, err
	}
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Fetch(ctx, cfg.Schema(), filter)
	if err != nil {
		s.logger.Warn("olap drilldown failed", "subject", subject, "error", err)
		return nil, err
	}
	s.logger.Info("olap drilldown completed", "subject", subject, "selectors", len(selectors), "rows", records.RowCount)
	return records, nil
}

// DrilldownRecordsByName fetches the records for a name-to-category mapping.
func (s *Service) DrilldownRecordsByName(ctx context.Context, subject string, mapping map[string]string) (*domain.RecordSet, error) {
	cfg, err := s.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	return s.Drilldown(ctx, subject, selectorsByName(cfg, mapping))
}

func (s *Service) checkRawSQL(dims []DimensionSpec, aggs []AggregateSpec) error {
	if s.rawSQL {
		return nil
	}
	for _, d := range dims {
		if dim, ok := d.(InlineDimension); ok {
			for _, c := range dim.Categories {
				if usesRawSQL(c.Where) {
					return domain.ErrInvalidSpec("dimension %q: raw SQL predicates are disabled", dim.Name)
				}
			}
		}
	}
	for _, a := range aggs {
		if raw, ok := a.(RawAggregate); ok {
			return domain.ErrInvalidSpec("aggregate %q: raw SQL aggregates are disabled", raw.Alias)
		}
	}
	return nil
}

func usesRawSQL(p PredicateSpec) bool {
	switch p := p.(type) {
	case SQL:
		return true
	case All:
		for _, c := range p {
			if usesRawSQL(c) {
				return true
			}
		}
	case Any:
		for _, c := range p {
			if usesRawSQL(c) {
				return true
			}
		}
	case Not:
		return usesRawSQL(p.Predicate)
	}
	return false
}
