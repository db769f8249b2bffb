package model

// DIDDocument represents a resolved identifier document. Both did:webs and
// did:iota documents normalize into this shape at the resolver boundary.
type DIDDocument struct {
	Context            []string                  `json:"@context,omitempty"`
	ID                 string                    `json:"id"`
	AlsoKnownAs        []string                  `json:"alsoKnownAs,omitempty"`
	VerificationMethod []VerificationMethodEntry `json:"verificationMethod,omitempty"`
	Authentication     []string                  `json:"authentication,omitempty"`
	AssertionMethod    []string                  `json:"assertionMethod,omitempty"`
	Controller         []string                  `json:"controller,omitempty"`
	Service            []Service                 `json:"service,omitempty"`
}

// VerificationMethodEntry represents a single verification method in a DID
// Document.
type VerificationMethodEntry struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// JWK represents a JSON Web Key structure.
type JWK struct {
	Kty string `json:"kty"`           // Key type
	Crv string `json:"crv"`           // Curve
	X   string `json:"x"`             // X coordinate
	Y   string `json:"y,omitempty"`   // Y coordinate (EC keys only)
	Kid string `json:"kid,omitempty"` // Key identifier
}

// Service represents a service endpoint entry.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}
