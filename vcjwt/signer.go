package vcjwt

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

// Signer issues signed linkage credentials for one did:webs identifier.
type Signer struct {
	privKeyHex string
	issuerDID  string
}

// NewSigner creates a signer from a hex-encoded secp256k1 private key.
func NewSigner(privKeyHex, issuerDID string) *Signer {
	return &Signer{
		privKeyHex: privKeyHex,
		issuerDID:  issuerDID,
	}
}

// Sign produces the signed three-segment token for the payload.
func (s *Signer) Sign(p Payload) (string, error) {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})

	token := jwt.NewWithClaims(ES256K, claims(p))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.KeyID()

	signed, err := token.SignedString(s.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// SigningInput returns the two-segment byte sequence a detached signature
// must cover, for callers that sign out of process.
func (s *Signer) SigningInput(p Payload) ([]byte, error) {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})

	token := jwt.NewWithClaims(ES256K, claims(p))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.KeyID()

	signingInput, err := token.SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing input: %w", err)
	}

	return []byte(signingInput), nil
}

// PublicKey returns the public key associated with this signer.
func (s *Signer) PublicKey() (*ecdsa.PublicKey, error) {
	privKeyBytes, err := hex.DecodeString(s.privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	privKey, err := crypto.ToECDSA(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &privKey.PublicKey, nil
}

// KeyID returns the verification method identifier for this signer.
func (s *Signer) KeyID() string {
	return fmt.Sprintf("%s#%s", s.issuerDID, "key-1")
}

func claims(p Payload) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":     p.Issuer,
		"sub":     p.Subject,
		"jti":     p.ID,
		"nbf":     p.NotBefore,
		"iat":     p.IssuedAt,
		"exp":     p.ExpiresAt,
		"linkage": p.Linkage,
	}
}
