// Package webdid assembles and serves DID documents and event logs for
// KERI-backed did:webs identifiers, enriched with the subject's self-issued
// designated-aliases credential.
package webdid

import (
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/mr-tron/base58"

	"github.com/pilacorp/go-did-linkage/common/model"
)

// aidPattern matches a qualified base64 KERI identifier: 44 characters from
// the base64url alphabet.
var aidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{44}$`)

// IsValidIdentifier reports whether s has the fixed 44-character base64url
// format of a KERI identifier. Used to reject malformed path parameters
// before any lookup.
func IsValidIdentifier(s string) bool {
	return aidPattern.MatchString(s)
}

// ed25519Multicodec is the multicodec prefix for an Ed25519 public key.
var ed25519Multicodec = []byte{0xed, 0x01}

// verificationMethodFromKey converts one qualified base64 signing key into a
// verification method entry. Only Ed25519 verfer codes ("D" prefix) are
// supported; other codes yield an error and are skipped by the caller.
func verificationMethodFromKey(did, qb64 string) (model.VerificationMethodEntry, error) {
	raw, err := decodeQB64(qb64)
	if err != nil {
		return model.VerificationMethodEntry{}, err
	}

	return model.VerificationMethodEntry{
		ID:                 did + "#" + qb64,
		Type:               "Ed25519VerificationKey2020",
		Controller:         did,
		PublicKeyMultibase: "z" + base58.Encode(append(ed25519Multicodec, raw...)),
		PublicKeyJwk: &model.JWK{
			Kty: "OKP",
			Crv: "Ed25519",
			X:   base64.RawURLEncoding.EncodeToString(raw),
			Kid: qb64,
		},
	}, nil
}

// decodeQB64 extracts the raw 32-byte Ed25519 key from a one-character-code
// qualified base64 string. The code character is replaced by a zero sextet so
// the 44 characters decode to 33 bytes with one lead byte to strip.
func decodeQB64(qb64 string) ([]byte, error) {
	if len(qb64) != 44 {
		return nil, fmt.Errorf("qualified key %q is not 44 characters", qb64)
	}
	if qb64[0] != 'D' {
		return nil, fmt.Errorf("unsupported key code %q", qb64[0])
	}

	decoded, err := base64.RawURLEncoding.DecodeString("A" + qb64[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode qualified key: %w", err)
	}

	return decoded[1:], nil
}
