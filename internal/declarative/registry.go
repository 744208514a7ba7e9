package declarative

import (
	"fmt"

	"duck-olap/internal/domain"
	"duck-olap/internal/service/olap"
)

// BuildRegistry registers every subject of the catalog, defines its
// dimensions and aggregates in document order, and seals the registry.
func BuildRegistry(doc *CatalogDoc) (*olap.Registry, error) {
	r := olap.NewRegistry()
	for _, s := range doc.Subjects {
		if err := registerSubject(r, s); err != nil {
			return nil, fmt.Errorf("subject %q: %w", s.Name, err)
		}
	}
	r.Seal()
	return r, nil
}

func registerSubject(r *olap.Registry, s SubjectDoc) error {
	rels := make([]domain.Relation, len(s.Relations))
	for i, rel := range s.Relations {
		rels[i] = domain.Relation{
			Name:       rel.Name,
			Table:      rel.Table,
			ForeignKey: rel.ForeignKey,
			PrimaryKey: rel.PrimaryKey,
			Columns:    rel.Columns,
			Outer:      rel.Outer,
		}
	}
	cfg, err := r.Register(olap.SubjectDef{
		Name:      s.Name,
		Table:     s.Table,
		Identity:  s.Identity,
		Fields:    s.Fields,
		Relations: rels,
	})
	if err != nil {
		return err
	}

	for _, d := range s.Dimensions {
		spec, err := ToDimensionSpec(d)
		if err != nil {
			return fmt.Errorf("dimension %q: %w", d.Name, err)
		}
		if err := cfg.DefineDimension(d.Name, spec); err != nil {
			return fmt.Errorf("dimension %q: %w", d.Name, err)
		}
	}
	for _, a := range s.Aggregates {
		spec, err := ToAggregateSpec(a)
		if err != nil {
			return fmt.Errorf("aggregate %q: %w", a.Name, err)
		}
		if err := cfg.DefineAggregate(a.Name, spec); err != nil {
			return fmt.Errorf("aggregate %q: %w", a.Name, err)
		}
	}
	return nil
}

// LoadRegistry loads a catalog file and builds a sealed registry from it.
func LoadRegistry(path string) (*olap.Registry, error) {
	doc, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return BuildRegistry(doc)
}
