package declarative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// dimensionFields and aggregateFields drop the custom unmarshalers so the
// object forms decode with the default rules.
type (
	dimensionFields DimensionDoc
	aggregateFields AggregateDoc
)

// UnmarshalYAML accepts a bare name or the object form.
func (d *DimensionDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*d = DimensionDoc{Name: node.Value}
		return nil
	}
	var f dimensionFields
	if err := strictYAML(node, &f); err != nil {
		return fmt.Errorf("dimension: %w", err)
	}
	*d = DimensionDoc(f)
	return nil
}

// UnmarshalYAML accepts a bare name or the object form.
func (a *AggregateDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = AggregateDoc{Name: node.Value}
		return nil
	}
	var f aggregateFields
	if err := strictYAML(node, &f); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	*a = AggregateDoc(f)
	return nil
}

// UnmarshalJSON accepts a bare name or the object form.
func (d *DimensionDoc) UnmarshalJSON(data []byte) error {
	var name string
	if json.Unmarshal(data, &name) == nil {
		*d = DimensionDoc{Name: name}
		return nil
	}
	var f dimensionFields
	if err := DecodeJSON(bytes.NewReader(data), &f); err != nil {
		return fmt.Errorf("dimension: %w", err)
	}
	*d = DimensionDoc(f)
	return nil
}

// UnmarshalJSON accepts a bare name or the object form.
func (a *AggregateDoc) UnmarshalJSON(data []byte) error {
	var name string
	if json.Unmarshal(data, &name) == nil {
		*a = AggregateDoc{Name: name}
		return nil
	}
	var f aggregateFields
	if err := DecodeJSON(bytes.NewReader(data), &f); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	*a = AggregateDoc(f)
	return nil
}

// strictYAML re-decodes node with unknown fields rejected. yaml.Node.Decode
// does not inherit KnownFields from the outer decoder.
func strictYAML(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// DecodeJSON decodes a request document, rejecting unknown fields. Numbers
// are kept as json.Number and converted to int64 or float64 when the
// document is turned into specs.
func DecodeJSON(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(out)
}
