package model

// VerifiedAccountFact is one decoded field of an attestation payload,
// e.g. {"name":"verifiedAccount","type":"bool","signature":"bool verifiedAccount",
// "value":{"name":"verifiedAccount","type":"bool","value":true}}.
type VerifiedAccountFact struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Signature string    `json:"signature"`
	Value     FactValue `json:"value"`
}

// FactValue is the typed value carried by a VerifiedAccountFact.
type FactValue struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value bool   `json:"value"`
}

// RawAttestation is an attestation record as returned by the provider.
type RawAttestation struct {
	ID              string `json:"id"`
	Schema          string `json:"schemaId"`
	Recipient       string `json:"recipient"`
	Attester        string `json:"attester"`
	Revoked         bool   `json:"revoked"`
	ExpirationTime  int64  `json:"expirationTime"` // unix seconds, 0 = never
	DecodedDataJSON string `json:"decodedDataJson"`
}
