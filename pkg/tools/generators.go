package tools

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"
)

var prdTemplate = template.Must(template.New("prd").Parse(`# PRD: {{.Title}}

**Author:** {{.Author}}
**Date:** {{.Date}}
**Status:** Draft

## Problem

{{.Problem}}

## Goals
{{range .Goals}}
- {{.}}{{end}}

## Non-Goals
{{range .NonGoals}}
- {{.}}{{end}}

## Proposed Solution

{{.Solution}}

## Success Metrics
{{range .Metrics}}
- {{.}}{{end}}

## Open Questions
{{range .OpenQuestions}}
- {{.}}{{end}}
`))

// PRDGenerate renders a product requirements document from structured input.
func PRDGenerate() *Tool {
	return &Tool{
		Name:        "prd_generate",
		Description: "Generate a product requirements document in Markdown",
		InputSchema: objectSchema(map[string]interface{}{
			"title":          map[string]interface{}{"type": "string"},
			"author":         map[string]interface{}{"type": "string"},
			"problem":        map[string]interface{}{"type": "string"},
			"solution":       map[string]interface{}{"type": "string"},
			"goals":          map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"non_goals":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"metrics":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"open_questions": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		}, "title", "problem"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			title, err := stringArg(args, "title", true)
			if err != nil {
				return nil, err
			}
			problem, err := stringArg(args, "problem", true)
			if err != nil {
				return nil, err
			}
			author, _ := stringArg(args, "author", false)
			solution, _ := stringArg(args, "solution", false)
			goals, err := stringSliceArg(args, "goals")
			if err != nil {
				return nil, err
			}
			nonGoals, err := stringSliceArg(args, "non_goals")
			if err != nil {
				return nil, err
			}
			metrics, err := stringSliceArg(args, "metrics")
			if err != nil {
				return nil, err
			}
			openQuestions, err := stringSliceArg(args, "open_questions")
			if err != nil {
				return nil, err
			}

			data := map[string]interface{}{
				"Title":         title,
				"Author":        orDefault(author, "Unknown"),
				"Date":          time.Now().Format("2006-01-02"),
				"Problem":       problem,
				"Solution":      orDefault(solution, "To be determined."),
				"Goals":         goals,
				"NonGoals":      nonGoals,
				"Metrics":       metrics,
				"OpenQuestions": openQuestions,
			}
			return renderDoc(prdTemplate, data)
		},
	}
}

var adrTemplate = template.Must(template.New("adr").Parse(`# ADR-{{.Number}}: {{.Title}}

**Date:** {{.Date}}
**Status:** {{.Status}}

## Context

{{.Context}}

## Decision

{{.Decision}}

## Consequences

{{.Consequences}}
{{if .Alternatives}}
## Alternatives Considered
{{range .Alternatives}}
- {{.}}{{end}}
{{end}}`))

// ADRGenerate renders an architecture decision record.
func ADRGenerate() *Tool {
	return &Tool{
		Name:        "adr_generate",
		Description: "Generate an architecture decision record in Markdown",
		InputSchema: objectSchema(map[string]interface{}{
			"title":        map[string]interface{}{"type": "string"},
			"number":       map[string]interface{}{"type": "number"},
			"status":       map[string]interface{}{"type": "string", "enum": []string{"proposed", "accepted", "deprecated", "superseded"}},
			"context":      map[string]interface{}{"type": "string"},
			"decision":     map[string]interface{}{"type": "string"},
			"consequences": map[string]interface{}{"type": "string"},
			"alternatives": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		}, "title", "context", "decision"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			title, err := stringArg(args, "title", true)
			if err != nil {
				return nil, err
			}
			contextArg, err := stringArg(args, "context", true)
			if err != nil {
				return nil, err
			}
			decision, err := stringArg(args, "decision", true)
			if err != nil {
				return nil, err
			}
			status, _ := stringArg(args, "status", false)
			consequences, _ := stringArg(args, "consequences", false)
			alternatives, err := stringSliceArg(args, "alternatives")
			if err != nil {
				return nil, err
			}
			number := 1
			if v, ok := args["number"].(float64); ok && v > 0 {
				number = int(v)
			}

			data := map[string]interface{}{
				"Title":        title,
				"Number":       fmt.Sprintf("%03d", number),
				"Date":         time.Now().Format("2006-01-02"),
				"Status":       orDefault(status, "proposed"),
				"Context":      contextArg,
				"Decision":     decision,
				"Consequences": orDefault(consequences, "To be assessed."),
				"Alternatives": alternatives,
			}
			return renderDoc(adrTemplate, data)
		},
	}
}

var ndaTemplate = template.Must(template.New("nda").Parse(`# MUTUAL NON-DISCLOSURE AGREEMENT

This Mutual Non-Disclosure Agreement (the "Agreement") is entered into as of {{.Date}} (the "Effective Date") by and between:

**{{.PartyA}}** ("Disclosing Party") and **{{.PartyB}}** ("Receiving Party").

## 1. Purpose

The parties wish to explore {{.Purpose}} (the "Purpose") and may disclose confidential information to each other in connection with the Purpose.

## 2. Confidential Information

"Confidential Information" means any information disclosed by either party, whether oral, written, or electronic, that is designated as confidential or that reasonably should be understood to be confidential.

## 3. Obligations

Each party agrees to (a) hold the other party's Confidential Information in strict confidence, (b) not disclose it to third parties without prior written consent, and (c) use it solely for the Purpose.

## 4. Term

The obligations under this Agreement shall remain in effect for {{.TermYears}} years from the Effective Date.

## 5. Governing Law

This Agreement shall be governed by the laws of {{.Jurisdiction}}.

---

*This document is a template and does not constitute legal advice.*

| {{.PartyA}} | {{.PartyB}} |
|---|---|
| Signature: ______________ | Signature: ______________ |
| Date: ______________ | Date: ______________ |
`))

// NDAGenerate renders a mutual NDA template.
func NDAGenerate() *Tool {
	return &Tool{
		Name:        "nda_generate",
		Description: "Generate a mutual non-disclosure agreement template in Markdown",
		InputSchema: objectSchema(map[string]interface{}{
			"party_a":      map[string]interface{}{"type": "string"},
			"party_b":      map[string]interface{}{"type": "string"},
			"purpose":      map[string]interface{}{"type": "string"},
			"term_years":   map[string]interface{}{"type": "number"},
			"jurisdiction": map[string]interface{}{"type": "string"},
		}, "party_a", "party_b", "purpose"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			partyA, err := stringArg(args, "party_a", true)
			if err != nil {
				return nil, err
			}
			partyB, err := stringArg(args, "party_b", true)
			if err != nil {
				return nil, err
			}
			purpose, err := stringArg(args, "purpose", true)
			if err != nil {
				return nil, err
			}
			jurisdiction, _ := stringArg(args, "jurisdiction", false)
			termYears := 2
			if v, ok := args["term_years"].(float64); ok && v > 0 {
				termYears = int(v)
			}

			data := map[string]interface{}{
				"Date":         time.Now().Format("January 2, 2006"),
				"PartyA":       partyA,
				"PartyB":       partyB,
				"Purpose":      purpose,
				"TermYears":    termYears,
				"Jurisdiction": orDefault(jurisdiction, "the State of Delaware"),
			}
			return renderDoc(ndaTemplate, data)
		},
	}
}

func renderDoc(tmpl *template.Template, data map[string]interface{}) (interface{}, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%s: render: %w", tmpl.Name(), err)
	}
	return map[string]interface{}{"markdown": strings.TrimSpace(buf.String()) + "\n"}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
