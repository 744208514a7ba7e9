package declarative

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"duck-olap/internal/domain"
	"duck-olap/internal/service/olap"
)

// Request conversion reports every problem as a domain validation error so
// hosts map it like any other bad query.

// ToQueryRequest converts a query document into a compiler request.
func (q QueryDoc) ToQueryRequest() (olap.QueryRequest, error) {
	var req olap.QueryRequest
	dims, err := toDimensionSpecs(q.Dimensions)
	if err != nil {
		return req, err
	}
	req.Dimensions = dims
	if q.Aggregates != nil {
		req.Aggregates = make([]olap.AggregateSpec, len(q.Aggregates))
		for i, a := range q.Aggregates {
			spec, err := ToAggregateSpec(a)
			if err != nil {
				return req, err
			}
			req.Aggregates[i] = spec
		}
	}
	return req, nil
}

// ToSelectors converts explicit drilldown selectors.
func (d DrilldownDoc) ToSelectors() ([]olap.CellSelector, error) {
	out := make([]olap.CellSelector, len(d.Selectors))
	for i, s := range d.Selectors {
		spec, err := ToDimensionSpec(s.Dimension)
		if err != nil {
			return nil, err
		}
		out[i] = olap.CellSelector{Dimension: spec, Category: s.Category}
	}
	return out, nil
}

// ParseCell parses "dimension=category" pairs into a drilldown mapping.
func ParseCell(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		dim, cat, ok := strings.Cut(p, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return nil, domain.ErrValidation("cell selector %q must look like dimension=category", p)
		}
		if _, dup := out[dim]; dup {
			return nil, domain.ErrValidation("dimension %q is selected twice", dim)
		}
		out[dim] = strings.TrimSpace(cat)
	}
	return out, nil
}

func toDimensionSpecs(docs []DimensionDoc) ([]olap.DimensionSpec, error) {
	out := make([]olap.DimensionSpec, len(docs))
	for i, d := range docs {
		spec, err := ToDimensionSpec(d)
		if err != nil {
			return nil, err
		}
		out[i] = spec
	}
	return out, nil
}

// ToDimensionSpec converts one dimension document.
func ToDimensionSpec(d DimensionDoc) (olap.DimensionSpec, error) {
	var errs []ValidationError
	validateDimension(d, "dimension", &errs)
	if len(errs) > 0 {
		return nil, domain.ErrInvalidSpec("%s", errs[0].Error())
	}

	switch dimensionForm(d) {
	case "period":
		start, _ := parseStart(d.Period.Start)
		length, _ := parseLength(d.Period.Length)
		return olap.PeriodDimension{
			Name:   d.Name,
			Field:  d.Period.Field,
			Start:  start,
			Length: length,
			Count:  d.Period.Count,
			Layout: d.Period.Layout,
		}, nil
	case "inline":
		cats := make([]olap.CategorySpec, len(d.Categories))
		for i, c := range d.Categories {
			where, err := ToPredicateSpec(*c.Where)
			if err != nil {
				return nil, err
			}
			cats[i] = olap.CategorySpec{Name: c.Name, Where: where}
		}
		return olap.InlineDimension{Name: d.Name, Categories: cats, Overlapping: d.Overlapping}, nil
	case "field":
		return olap.FieldDimension{Field: d.Field}, nil
	default:
		if d.Name == "" {
			return nil, domain.ErrInvalidSpec("dimension needs a name, field, categories or period")
		}
		return olap.NamedDimension{Name: d.Name}, nil
	}
}

// ToAggregateSpec converts one aggregate document. A document with only a
// name refers to a registered aggregate.
func ToAggregateSpec(a AggregateDoc) (olap.AggregateSpec, error) {
	switch {
	case a.SQL != "" || strings.EqualFold(a.Kind, string(domain.AggregateRaw)):
		if a.Kind != "" && !strings.EqualFold(a.Kind, string(domain.AggregateRaw)) {
			return nil, domain.ErrInvalidSpec("aggregate %q: sql is only valid with kind raw", a.Alias)
		}
		alias := a.Alias
		if alias == "" {
			alias = a.Name
		}
		return olap.RawAggregate{SQL: a.SQL, Args: normalizeValues(a.Args), Joins: a.Joins, Alias: alias}, nil
	case a.Kind != "":
		return olap.AggregateDef{Kind: a.Kind, Target: a.Target, Alias: a.Alias}, nil
	case a.Name != "":
		return olap.NamedAggregate{Name: a.Name}, nil
	default:
		return nil, domain.ErrInvalidSpec("aggregate needs a name, kind or sql")
	}
}

// ToPredicateSpec converts a predicate document.
func ToPredicateSpec(p PredicateDoc) (olap.PredicateSpec, error) {
	form, err := predicateForm(p)
	if err != nil {
		return nil, domain.ErrInvalidSpec("%v", err)
	}
	switch form {
	case "all":
		out := make(olap.All, len(p.All))
		for i, c := range p.All {
			if out[i], err = ToPredicateSpec(c); err != nil {
				return nil, err
			}
		}
		return out, nil
	case "any":
		out := make(olap.Any, len(p.Any))
		for i, c := range p.Any {
			if out[i], err = ToPredicateSpec(c); err != nil {
				return nil, err
			}
		}
		return out, nil
	case "not":
		inner, err := ToPredicateSpec(*p.Not)
		if err != nil {
			return nil, err
		}
		return olap.Not{Predicate: inner}, nil
	case "always":
		return olap.Always{}, nil
	case "sql":
		return olap.SQL{Fragment: p.SQL, Args: normalizeValues(p.Args), Joins: p.Joins}, nil
	}

	switch op := opOrDefault(p.Op); op {
	case "between":
		return olap.Between{Field: p.Field, Low: normalizeValue(p.Low), High: normalizeValue(p.High)}, nil
	case "in":
		return olap.In{Field: p.Field, Values: normalizeValues(p.Values)}, nil
	case "is_null":
		return olap.IsNull{Field: p.Field}, nil
	case "not_null":
		return olap.NotNull{Field: p.Field}, nil
	case "like":
		return olap.Like{Field: p.Field, Pattern: p.Pattern}, nil
	default:
		return olap.Compare{Field: p.Field, Op: op, Value: normalizeValue(p.Value)}, nil
	}
}

// normalizeValue turns decoded document values into driver arguments.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return int64(x)
	default:
		return v
	}
}

func normalizeValues(vs []any) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = normalizeValue(v)
	}
	return out
}

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("start is required")
	}
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("start %q is not an RFC 3339 timestamp or a date", s)
}

func parseLength(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("length is required")
	}
	var (
		d   time.Duration
		err error
	)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		var n int
		n, err = strconv.Atoi(days)
		d = time.Duration(n) * 24 * time.Hour
	} else {
		d, err = time.ParseDuration(s)
	}
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("length %q must be a positive duration such as 720h or 30d", s)
	}
	return d, nil
}
