// Package vcjwt builds, signs and verifies the compact linkage credential: a
// detached-signature JWT attesting that a did:webs identifier and a did:iota
// identifier are controlled by the same legal entity. The token is
// independently verifiable from its three segments alone, without access to
// the protocol infrastructure that produced the linkage.
package vcjwt

import (
	"time"

	"github.com/google/uuid"
)

// Validity is the fixed lifetime of a linkage credential.
const Validity = 365 * 24 * time.Hour

// Header is the protected JWT header.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
}

// LinkageClaim names the two linked identifiers, the controlling legal
// entity and the designated-aliases credential backing the link.
type LinkageClaim struct {
	WebsDID        string `json:"websDid"`
	IotaDID        string `json:"iotaDid"`
	LegalEntityID  string `json:"legalEntityId"`
	CredentialSAID string `json:"credentialSaid"`
}

// Payload is the claim set of a linkage credential.
type Payload struct {
	Issuer    string       `json:"iss"`
	Subject   string       `json:"sub"`
	ID        string       `json:"jti"`
	NotBefore int64        `json:"nbf"`
	IssuedAt  int64        `json:"iat"`
	ExpiresAt int64        `json:"exp"`
	Linkage   LinkageClaim `json:"linkage"`
}

// NewHeader returns the ES256K header for the given signing key identifier.
func NewHeader(kid string) Header {
	return Header{Alg: "ES256K", Kid: kid, Typ: "JWT"}
}

// BuildPayload constructs a payload with a fresh claim id, valid from now
// for the fixed one-year validity window.
func BuildPayload(issuerDID, subjectDID, legalEntityID, credentialSAID string) Payload {
	now := time.Now().UTC()

	return Payload{
		Issuer:    issuerDID,
		Subject:   subjectDID,
		ID:        "urn:uuid:" + uuid.NewString(),
		NotBefore: now.Unix(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(Validity).Unix(),
		Linkage: LinkageClaim{
			WebsDID:        issuerDID,
			IotaDID:        subjectDID,
			LegalEntityID:  legalEntityID,
			CredentialSAID: credentialSAID,
		},
	}
}
