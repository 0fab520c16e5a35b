// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain turns a persisted mirror match into a plain-language
// account of why the buyer identity was propagated, via a Generative AI API.
package explain

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// AIBackend abstracts the Generative AI API so tests can supply a mock.
type AIBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// explainPromptTmpl is the prompt sent to the AI API for one match. The
// match log entry and both shipment records are embedded as YAML so the
// model sees the full criteria breakdown.
var explainPromptTmpl = template.Must(template.New("explain").Parse(`You are a trade-intelligence analyst. An automated mirror-matching engine inferred the buyer behind an export shipment whose declared consignee was a legal placeholder (a bank, "to order" clause, or letter-of-credit reference). It did so by matching the export against an import shipment with a known buyer and scoring the pair on commodity code, quantity tolerance, shipping lag, container, and vessel.

Explain to a non-technical reader, in one or two short paragraphs, why this match was accepted: which signals agreed, how strong the overall score is, and what the deviations mean. A "matched: null" criterion means the signal could not be checked, not that it failed. Do not speculate beyond the data.

Match record:
{{.Entry}}
Export shipment:
{{.Export}}
Matched import shipment:
{{.Import}}`))

// Explainer renders explanation prompts and delegates to an AI backend.
type Explainer struct {
	backend AIBackend
}

// New returns an Explainer using the given backend.
func New(backend AIBackend) *Explainer {
	return &Explainer{backend: backend}
}

// Explain produces a narrative for one accepted match from its audit row
// and the two shipment records it links.
func (e *Explainer) Explain(ctx context.Context, entry types.MirrorMatchLogEntry, export, imp types.ShipmentRecord) (string, error) {
	prompt, err := renderPrompt(entry, export, imp)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := e.backend.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating explanation for %s: %w", entry.ExportTransactionID, err)
	}
	return text, nil
}

func renderPrompt(entry types.MirrorMatchLogEntry, export, imp types.ShipmentRecord) (string, error) {
	entryYAML, err := yaml.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshaling match entry: %w", err)
	}
	exportYAML, err := yaml.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("marshaling export: %w", err)
	}
	importYAML, err := yaml.Marshal(imp)
	if err != nil {
		return "", fmt.Errorf("marshaling import: %w", err)
	}

	var buf bytes.Buffer
	err = explainPromptTmpl.Execute(&buf, struct {
		Entry, Export, Import string
	}{
		Entry:  string(entryYAML),
		Export: string(exportYAML),
		Import: string(importYAML),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
