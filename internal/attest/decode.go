package attest

import (
	"encoding/json"
	"errors"
	"fmt"

	z "github.com/Oudwins/zog"

	"github.com/ppiankov/discountclaim/internal/model"
)

// FactSchema validates one decoded attestation field.
var FactSchema = z.Struct(z.Shape{
	"name":      z.String().Required(z.Message("fact name is required")),
	"type":      z.String().Required(z.Message("fact type is required")),
	"signature": z.String().Required(z.Message("fact signature is required")),
	"value": z.Struct(z.Shape{
		"name":  z.String().Required(z.Message("value name is required")),
		"type":  z.String().Required().OneOf([]string{"bool"}, z.Message("only bool facts are supported")),
		"value": z.Bool(),
	}),
})

// ErrEmptyPayload is returned for an attestation without decoded data.
var ErrEmptyPayload = errors.New("attestation payload is empty")

// DecodeFacts parses an attestation's decodedDataJson payload.
func DecodeFacts(payload string) ([]model.VerifiedAccountFact, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	var facts []model.VerifiedAccountFact
	if err := json.Unmarshal([]byte(payload), &facts); err != nil {
		return nil, fmt.Errorf("decode attestation payload: %w", err)
	}

	for i := range facts {
		if issues := FactSchema.Validate(&facts[i]); len(issues) > 0 {
			return nil, fmt.Errorf("attestation payload field %d failed validation: %v", i, issues)
		}
	}
	if facts == nil {
		facts = []model.VerifiedAccountFact{}
	}
	return facts, nil
}
