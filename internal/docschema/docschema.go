// Package docschema validates structured documents against their JSON Schema
// and fingerprints them with an RFC 8785 canonical digest.
package docschema

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

//go:embed schemas/structured_document.schema.json
var documentSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled, compileErr = compiler.Compile(documentSchema)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile document schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Schema returns the raw document schema
func Schema() []byte {
	out := make([]byte, len(documentSchema))
	copy(out, documentSchema)
	return out
}

// Validate checks a document against the schema
func Validate(doc models.StructuredDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks raw JSON against the schema
func ValidateJSON(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	result := s.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// Canonicalize returns the RFC 8785 canonical form of v's JSON encoding
func Canonicalize(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canonical, nil
}

// Digest returns the sha256 hex digest of v's canonical JSON. Equal values
// always produce equal digests regardless of map ordering.
func Digest(v interface{}) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
