package vcjwt

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedToken marks envelope decode failures: wrong segment count,
// bad base64, or invalid JSON in a segment.
var ErrMalformedToken = errors.New("malformed linkage token")

// Decoded is the result of splitting a signed token.
type Decoded struct {
	Header       Header
	Payload      Payload
	Signature    []byte // raw detached signature bytes
	SigningInput []byte // the original header.payload byte sequence
}

// EncodeUnsigned serializes the header and payload into the two-segment
// signing input: base64url(JSON(header)) "." base64url(JSON(payload)). A
// detached signature must cover exactly these bytes.
func EncodeUnsigned(h Header, p Payload) ([]byte, error) {
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	unsigned := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." +
		base64.RawURLEncoding.EncodeToString(payloadJSON)

	return []byte(unsigned), nil
}

// AssembleSigned appends the signature as the third segment.
func AssembleSigned(unsigned []byte, signature []byte) string {
	return string(unsigned) + "." + base64.RawURLEncoding.EncodeToString(signature)
}

// Decode splits a signed token into its three segments. Any other segment
// count is a decode error.
func Decode(token string) (*Decoded, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid header segment: %v", ErrMalformedToken, err)
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payload segment: %v", ErrMalformedToken, err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signature segment: %v", ErrMalformedToken, err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("%w: invalid header JSON: %v", ErrMalformedToken, err)
	}
	var payload Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid payload JSON: %v", ErrMalformedToken, err)
	}

	return &Decoded{
		Header:       header,
		Payload:      payload,
		Signature:    signature,
		SigningInput: []byte(parts[0] + "." + parts[1]),
	}, nil
}

// IsExpired reports whether the token is outside its validity window at the
// given instant. Not-yet-valid counts as expired for this system's purposes.
func IsExpired(token string, now time.Time) (bool, error) {
	decoded, err := Decode(token)
	if err != nil {
		return true, err
	}
	return isExpired(&decoded.Payload, now), nil
}

func isExpired(p *Payload, now time.Time) bool {
	return now.Unix() < p.NotBefore || now.Unix() > p.ExpiresAt
}

// VerifySignature verifies the detached signature over the token's first two
// segments. It returns false without touching any crypto when the token is
// expired, and (false, err) on a malformed envelope; it never panics and
// never defaults to true.
func VerifySignature(token string, publicKey *ecdsa.PublicKey, now time.Time) (bool, error) {
	decoded, err := Decode(token)
	if err != nil {
		return false, err
	}

	if isExpired(&decoded.Payload, now) {
		return false, nil
	}

	if err := ES256K.Verify(string(decoded.SigningInput), decoded.Signature, publicKey); err != nil {
		return false, nil
	}

	return true, nil
}
