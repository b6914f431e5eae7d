// Package ai wraps the remote generative model behind a provider-neutral
// interface and applies the validate-and-coerce rules to whatever it returns.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when no AI credential is configured.
	ErrUnavailable = errors.New("AI features are unavailable: no API key configured")
	// ErrCouldNotAnalyze is the single user-facing failure for receipt scans.
	ErrCouldNotAnalyze = errors.New("could not analyze the image, please enter the expense manually")
)

// Image is an inline image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// Schema describes a JSON response shape in provider-neutral terms.
type Schema struct {
	Type        string // OBJECT, STRING, NUMBER
	Description string
	Format      string
	Enum        []string
	Properties  map[string]*Schema
	Required    []string
}

// Provider is a remote model able to answer text prompts and to extract a
// schema-constrained JSON document from an image.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	ExtractStructured(ctx context.Context, img Image, instruction string, schema *Schema) ([]byte, error)
}
