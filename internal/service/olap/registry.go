package olap

import (
	"sort"
	"sync"
	"sync/atomic"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// Registry holds the subjects with their named dimensions and aggregates. It
// is written during setup and then sealed; once sealed it is read-only and
// safe for concurrent use without locking.
type Registry struct {
	mu       sync.Mutex
	sealed   atomic.Bool
	subjects map[string]*SubjectConfig
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{subjects: make(map[string]*SubjectConfig)}
}

// SubjectConfig is the registered metadata of one subject. It implements Catalog.
type SubjectConfig struct {
	registry   *Registry
	subject    *Subject
	dimensions map[string]*domain.Dimension
	dimOrder   []string
	aggregates map[string]*domain.Aggregate
	aggOrder   []string
}

var _ Catalog = (*SubjectConfig)(nil)

// Register adds a subject.
func (r *Registry) Register(def SubjectDef) (*SubjectConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return nil, &domain.RegistrySealedError{Sealed: true}
	}
	if _, dup := r.subjects[def.Name]; dup {
		return nil, domain.ErrConflict("subject %q is already registered", def.Name)
	}
	subject, err := NewSubject(def)
	if err != nil {
		return nil, err
	}
	cfg := &SubjectConfig{
		registry:   r,
		subject:    subject,
		dimensions: make(map[string]*domain.Dimension),
		aggregates: make(map[string]*domain.Aggregate),
	}
	r.subjects[def.Name] = cfg
	return cfg, nil
}

// Seal ends setup. Further registration fails and lookups are allowed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// Subject returns the configuration of a registered subject.
func (r *Registry) Subject(name string) (*SubjectConfig, error) {
	if !r.sealed.Load() {
		return nil, &domain.RegistrySealedError{Sealed: false}
	}
	cfg, ok := r.subjects[name]
	if !ok {
		return nil, &domain.UnknownSubjectError{Name: name}
	}
	return cfg, nil
}

// Subjects lists the registered subject names, sorted.
func (r *Registry) Subjects() []string {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	names := make([]string, 0, len(r.subjects))
	for n := range r.subjects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schema returns the subject's schema.
func (c *SubjectConfig) Schema() *Subject { return c.subject }

// DefineDimension registers a named dimension. The dimension is resolved now, so
// errors surface during setup; it may refer to dimensions defined earlier.
func (c *SubjectConfig) DefineDimension(name string, spec DimensionSpec) error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	if c.registry.sealed.Load() {
		return &domain.RegistrySealedError{Sealed: true}
	}
	if err := sqlexpr.ValidateIdentifier(name); err != nil {
		return domain.ErrInvalidSpec("dimension %v", err)
	}
	if _, dup := c.dimensions[name]; dup {
		return domain.ErrInvalidSpec("dimension %q is already defined for %q", name, c.subject.name)
	}
	dim, err := resolveDimension(c.subject, setupCatalog{c}, spec)
	if err != nil {
		return err
	}
	named := *dim
	named.Name = name
	c.dimensions[name] = &named
	c.dimOrder = append(c.dimOrder, name)
	return nil
}

// DefineAggregate registers a named aggregate; its alias is the name.
func (c *SubjectConfig) DefineAggregate(name string, spec AggregateSpec) error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	if c.registry.sealed.Load() {
		return &domain.RegistrySealedError{Sealed: true}
	}
	if err := validateAlias(name); err != nil {
		return err
	}
	if _, dup := c.aggregates[name]; dup {
		return domain.ErrInvalidSpec("aggregate %q is already defined for %q", name, c.subject.name)
	}
	agg, err := resolveAggregate(c.subject, setupCatalog{c}, spec)
	if err != nil {
		return err
	}
	named := *agg
	named.Alias = name
	c.aggregates[name] = &named
	c.aggOrder = append(c.aggOrder, name)
	return nil
}

// LookupDimension returns a copy of a registered dimension. The caller owns
// the copy; the registered definition cannot be changed through it.
func (c *SubjectConfig) LookupDimension(name string) (*domain.Dimension, error) {
	if !c.registry.sealed.Load() {
		return nil, &domain.RegistrySealedError{Sealed: false}
	}
	dim, err := c.dimension(name)
	if err != nil {
		return nil, err
	}
	return dim.Clone(), nil
}

// LookupAggregate returns a copy of a registered aggregate.
func (c *SubjectConfig) LookupAggregate(name string) (*domain.Aggregate, error) {
	if !c.registry.sealed.Load() {
		return nil, &domain.RegistrySealedError{Sealed: false}
	}
	agg, err := c.aggregate(name)
	if err != nil {
		return nil, err
	}
	return agg.Clone(), nil
}

// HasDimension reports whether name is a registered dimension.
func (c *SubjectConfig) HasDimension(name string) bool {
	_, ok := c.dimensions[name]
	return ok
}

// DimensionNames lists registered dimensions in definition order.
func (c *SubjectConfig) DimensionNames() []string { return append([]string(nil), c.dimOrder...) }

// AggregateNames lists registered aggregates in definition order.
func (c *SubjectConfig) AggregateNames() []string { return append([]string(nil), c.aggOrder...) }

func (c *SubjectConfig) dimension(name string) (*domain.Dimension, error) {
	dim, ok := c.dimensions[name]
	if !ok {
		return nil, &domain.UnknownDimensionError{Subject: c.subject.name, Name: name}
	}
	return dim, nil
}

func (c *SubjectConfig) aggregate(name string) (*domain.Aggregate, error) {
	agg, ok := c.aggregates[name]
	if !ok {
		return nil, &domain.UnknownAggregateError{Subject: c.subject.name, Name: name}
	}
	return agg, nil
}

// setupCatalog reads definitions while the registry is still being built.
type setupCatalog struct{ c *SubjectConfig }

func (s setupCatalog) LookupDimension(name string) (*domain.Dimension, error) {
	dim, err := s.c.dimension(name)
	if err != nil {
		return nil, err
	}
	return dim.Clone(), nil
}

func (s setupCatalog) LookupAggregate(name string) (*domain.Aggregate, error) {
	return s.c.aggregate(name)
}
