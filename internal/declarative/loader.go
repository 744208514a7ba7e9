package declarative

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalog reads and validates a catalog file. Unknown fields are
// rejected at every level.
func LoadCatalog(path string) (*CatalogDoc, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified config files
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseCatalog(path, data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*CatalogDoc, error) {
	return parseCatalog("catalog", data)
}

func parseCatalog(path string, data []byte) (*CatalogDoc, error) {
	var doc CatalogDoc
	if err := decodeYAML(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateDocument(path, doc.APIVersion, doc.Kind, KindNameCatalog); err != nil {
		return nil, err
	}
	if errs := Validate(&doc); len(errs) > 0 {
		return nil, joinValidation(path, errs)
	}
	return &doc, nil
}

// LoadQuery reads a cube request document. JSON documents are accepted as
// the YAML subset they are.
func LoadQuery(path string) (*QueryDoc, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified request files
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc QueryDoc
	if err := decodeYAML(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

func decodeYAML(data []byte, target any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// validateDocument checks the apiVersion and kind fields.
func validateDocument(path string, apiVersion, kind, expectedKind string) error {
	if apiVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, apiVersion, SupportedAPIVersion)
	}
	if kind != expectedKind {
		return fmt.Errorf("%s: unexpected kind %q (expected %q)", path, kind, expectedKind)
	}
	return nil
}

func joinValidation(path string, errs []ValidationError) error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return fmt.Errorf("%s: %d validation error(s): %w", path, len(errs), errors.Join(out...))
}
