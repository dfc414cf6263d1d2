package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ergols/internal/diag"
)

// payload is the structured answer an analyzer prints on exit 0.
type payload struct {
	Success *bool          `json:"success"`
	Errors  []payloadError `json:"errors"`
}

type payloadError struct {
	Message string `json:"message"`
	Line    *int   `json:"line"`
	Column  *int   `json:"column"`
	Offset  *int   `json:"offset"`
	Length  *int   `json:"length"`
}

const genericFailure = "analyzer reported failure without details"

var errNoSuccessField = errors.New(`missing "success" field`)

// decodePayload parses stdout as a single JSON payload object.
func decodePayload(stdout string) (payload, error) {
	var p payload
	text := strings.TrimSpace(stdout)
	if text == "" {
		return p, errors.New("empty output")
	}
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&p); err != nil {
		return p, err
	}
	if rest := text[dec.InputOffset():]; strings.TrimSpace(rest) != "" {
		return p, fmt.Errorf("trailing data after payload: %q", rest)
	}
	if p.Success == nil {
		return p, errNoSuccessField
	}
	return p, nil
}

// outcome converts the payload into descriptors. Positions are already
// 0-based; negative values are dropped rather than guessed at.
func (p payload) outcome() diag.Outcome {
	errs := make([]diag.Descriptor, 0, len(p.Errors))
	for _, e := range p.Errors {
		msg := cleanMessage(e.Message)
		if msg == "" {
			msg = genericFailure
		}
		errs = append(errs, diag.Descriptor{
			Message: msg,
			Line:    nonNegative(e.Line),
			Column:  nonNegative(e.Column),
			Offset:  nonNegative(e.Offset),
			Length:  nonNegative(e.Length),
			Origin:  diag.OriginAnalyzer,
		})
	}
	if !*p.Success && len(errs) == 0 {
		errs = append(errs, diag.Message(diag.OriginAnalyzer, genericFailure))
	}
	if *p.Success && len(errs) > 0 {
		// errors win over a contradictory success flag
		return diag.FromDescriptors(diag.StatusAuthoritative, "analyzer reported success with errors", errs)
	}
	return diag.FromDescriptors(diag.StatusAuthoritative, "", errs)
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return diag.Int(*v)
}
