package declarative

import (
	"fmt"
	"strings"

	"duck-olap/internal/service/olap"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Path    string // e.g. "subject[people].dimension[age_group]"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Valid predicate operators on a field.
var validOps = map[string]bool{
	"eq": true, "neq": true, "lt": true, "lte": true, "gt": true, "gte": true,
	"between": true, "in": true, "is_null": true, "not_null": true, "like": true,
}

// Validate checks a catalog for structural correctness. Field and relation
// references are checked later, when the catalog is registered. It returns
// every problem found rather than stopping at the first.
func Validate(doc *CatalogDoc) []ValidationError {
	var errs []ValidationError

	if len(doc.Subjects) == 0 {
		addErr(&errs, "", "catalog declares no subjects")
	}
	seen := make(map[string]bool, len(doc.Subjects))
	for i, s := range doc.Subjects {
		path := fmt.Sprintf("subject[%d]", i)
		if s.Name == "" {
			addErr(&errs, path, "name is required")
		} else {
			path = fmt.Sprintf("subject[%s]", s.Name)
			if seen[s.Name] {
				addErr(&errs, path, "duplicate subject name")
			}
			seen[s.Name] = true
		}
		validateRelations(s.Relations, path, &errs)
		validateDimensionDefs(s.Dimensions, path, &errs)
		validateAggregateDefs(s.Aggregates, path, &errs)
	}
	return errs
}

func addErr(errs *[]ValidationError, path, msg string, args ...any) {
	*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf(msg, args...)})
}

func validateRelations(rels []RelationDoc, parent string, errs *[]ValidationError) {
	seen := make(map[string]bool, len(rels))
	for i, r := range rels {
		path := fmt.Sprintf("%s.relation[%d]", parent, i)
		if r.Name == "" {
			addErr(errs, path, "name is required")
		} else {
			path = fmt.Sprintf("%s.relation[%s]", parent, r.Name)
			if seen[r.Name] {
				addErr(errs, path, "duplicate relation name")
			}
			seen[r.Name] = true
		}
		if r.Table == "" {
			addErr(errs, path, "table is required")
		}
		if r.ForeignKey == "" {
			addErr(errs, path, "foreign_key is required")
		}
	}
}

func validateDimensionDefs(dims []DimensionDoc, parent string, errs *[]ValidationError) {
	seen := make(map[string]bool, len(dims))
	for i, d := range dims {
		path := fmt.Sprintf("%s.dimension[%d]", parent, i)
		if d.Name == "" {
			addErr(errs, path, "name is required")
		} else {
			path = fmt.Sprintf("%s.dimension[%s]", parent, d.Name)
			if seen[d.Name] {
				addErr(errs, path, "duplicate dimension name")
			}
			seen[d.Name] = true
		}
		if dimensionForm(d) == "" {
			addErr(errs, path, "one of field, categories or period is required")
			continue
		}
		validateDimension(d, path, errs)
	}
}

// validateDimension checks the shape of a dimension used in a definition or
// a request.
func validateDimension(d DimensionDoc, path string, errs *[]ValidationError) {
	forms := 0
	if d.Field != "" {
		forms++
	}
	if len(d.Categories) > 0 {
		forms++
	}
	if d.Period != nil {
		forms++
	}
	if forms > 1 {
		addErr(errs, path, "field, categories and period are mutually exclusive")
	}
	if d.Overlapping && len(d.Categories) == 0 {
		addErr(errs, path, "overlapping requires categories")
	}
	if len(d.Categories) > olap.MaxCategories {
		addErr(errs, path, "%d categories exceed the limit of %d", len(d.Categories), olap.MaxCategories)
	}
	for j, c := range d.Categories {
		cpath := fmt.Sprintf("%s.category[%d]", path, j)
		if c.Name == "" {
			addErr(errs, cpath, "name is required")
		} else {
			cpath = fmt.Sprintf("%s.category[%s]", path, c.Name)
		}
		if c.Where == nil {
			addErr(errs, cpath, "where is required")
			continue
		}
		validatePredicate(*c.Where, cpath+".where", errs)
	}
	if p := d.Period; p != nil {
		if p.Field == "" {
			addErr(errs, path+".period", "field is required")
		}
		if _, err := parseStart(p.Start); err != nil {
			addErr(errs, path+".period", "%v", err)
		}
		if _, err := parseLength(p.Length); err != nil {
			addErr(errs, path+".period", "%v", err)
		}
		if p.Count <= 0 {
			addErr(errs, path+".period", "count must be positive")
		}
		if p.Count > olap.MaxCategories {
			addErr(errs, path+".period", "count %d exceeds the limit of %d", p.Count, olap.MaxCategories)
		}
	}
}

func validatePredicate(p PredicateDoc, path string, errs *[]ValidationError) {
	form, err := predicateForm(p)
	if err != nil {
		addErr(errs, path, "%v", err)
		return
	}
	switch form {
	case "field":
		if op := opOrDefault(p.Op); !validOps[op] {
			addErr(errs, path, "unsupported op %q (expected one of %s)", p.Op, strings.Join(sortedOps(), ", "))
		}
	case "all":
		for i, c := range p.All {
			validatePredicate(c, fmt.Sprintf("%s.all[%d]", path, i), errs)
		}
	case "any":
		for i, c := range p.Any {
			validatePredicate(c, fmt.Sprintf("%s.any[%d]", path, i), errs)
		}
	case "not":
		validatePredicate(*p.Not, path+".not", errs)
	}
}

func validateAggregateDefs(aggs []AggregateDoc, parent string, errs *[]ValidationError) {
	seen := make(map[string]bool, len(aggs))
	for i, a := range aggs {
		path := fmt.Sprintf("%s.aggregate[%d]", parent, i)
		if a.Name == "" {
			addErr(errs, path, "name is required")
		} else {
			path = fmt.Sprintf("%s.aggregate[%s]", parent, a.Name)
			if seen[a.Name] {
				addErr(errs, path, "duplicate aggregate name")
			}
			seen[a.Name] = true
		}
		if a.Kind == "" && a.SQL == "" {
			addErr(errs, path, "kind or sql is required")
		}
		if a.Kind != "" && a.Kind != "raw" && a.SQL != "" {
			addErr(errs, path, "sql is only valid with kind raw")
		}
	}
}

// dimensionForm names the variant a dimension document selects; "" means a
// reference by name.
func dimensionForm(d DimensionDoc) string {
	switch {
	case d.Period != nil:
		return "period"
	case len(d.Categories) > 0:
		return "inline"
	case d.Field != "":
		return "field"
	default:
		return ""
	}
}

// predicateForm names the single form a predicate document uses.
func predicateForm(p PredicateDoc) (string, error) {
	var forms []string
	if p.Field != "" {
		forms = append(forms, "field")
	}
	if p.All != nil {
		forms = append(forms, "all")
	}
	if p.Any != nil {
		forms = append(forms, "any")
	}
	if p.Not != nil {
		forms = append(forms, "not")
	}
	if p.Always {
		forms = append(forms, "always")
	}
	if p.SQL != "" {
		forms = append(forms, "sql")
	}
	switch len(forms) {
	case 0:
		return "", fmt.Errorf("predicate is empty")
	case 1:
		return forms[0], nil
	default:
		return "", fmt.Errorf("predicate mixes %s", strings.Join(forms, " and "))
	}
}

func opOrDefault(op string) string {
	if op == "" {
		return "eq"
	}
	return strings.ToLower(op)
}

func sortedOps() []string {
	return []string{"between", "eq", "gt", "gte", "in", "is_null", "like", "lt", "lte", "neq", "not_null"}
}
