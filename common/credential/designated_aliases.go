package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaSAID identifies the designated-aliases attestation schema. Credentials
// listed from the store are filtered by this schema before parsing.
const SchemaSAID = "EN6Oh5XSD5_q2Hgu-aqpdfbVepdpYpFlgz6zvJL5b_r5"

// designatedAliasesSchema validates the shape of a designated-aliases
// attestation before any field is trusted.
const designatedAliasesSchema = `{
	"type": "object",
	"required": ["d", "i", "a"],
	"properties": {
		"d": {"type": "string", "minLength": 1},
		"i": {"type": "string", "minLength": 1},
		"s": {"type": "string"},
		"a": {
			"type": "object",
			"required": ["ids"],
			"properties": {
				"dt": {"type": "string"},
				"ids": {
					"type": "array",
					"items": {"type": "string"}
				}
			}
		}
	}
}`

// DesignatedAliases is a self-issued, content-addressed attestation naming
// the alias identifiers an entity designates for itself.
type DesignatedAliases struct {
	SAID     string    // content address claimed by the credential body
	Issuer   string    // issuing identifier (the subject's own AID)
	Aliases  []string  // designated alias identifiers, order preserved
	IssuedAt time.Time // attestation timestamp, zero when absent
	Raw      []byte    // original credential body
}

type attestationBody struct {
	SAID   string `json:"d"`
	Issuer string `json:"i"`
	Schema string `json:"s"`
	Attrs  struct {
		DateTime string   `json:"dt"`
		IDs      []string `json:"ids"`
	} `json:"a"`
}

// Parse validates and parses a raw designated-aliases attestation.
func Parse(raw []byte) (*DesignatedAliases, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(designatedAliasesSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate designated-aliases credential: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("designated-aliases credential does not match schema: %v", result.Errors())
	}

	var body attestationBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal designated-aliases credential: %w", err)
	}

	da := &DesignatedAliases{
		SAID:    body.SAID,
		Issuer:  body.Issuer,
		Aliases: body.Attrs.IDs,
		Raw:     append([]byte(nil), raw...),
	}

	if body.Attrs.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, body.Attrs.DateTime)
		if err != nil {
			return nil, fmt.Errorf("invalid attestation timestamp %q: %w", body.Attrs.DateTime, err)
		}
		da.IssuedAt = ts
	}

	return da, nil
}

// ContentHash computes the content address of the credential body: the hex
// SHA-256 digest of the canonicalized body with the self-referential "d"
// field excluded. Any change to issuer, aliases or timestamp changes the
// hash.
func (da *DesignatedAliases) ContentHash() (string, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(da.Raw, &body); err != nil {
		return "", fmt.Errorf("failed to unmarshal credential body: %w", err)
	}
	delete(body, "d")

	canonical, err := CanonicalizeDocument(body)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize credential body: %w", err)
	}

	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}
