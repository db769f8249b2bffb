package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAttestation = `{
	"d": "EIC9wMKvsSf9RczSHQAXROeyOeeJj1uDCZzkbsoeOsA7",
	"i": "EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL",
	"s": "EN6Oh5XSD5_q2Hgu-aqpdfbVepdpYpFlgz6zvJL5b_r5",
	"a": {
		"dt": "2024-06-01T12:00:00Z",
		"ids": ["did:iota:testnet:0xBEEF", "did:keri:EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL"]
	}
}`

func TestParse(t *testing.T) {
	da, err := Parse([]byte(validAttestation))
	require.NoError(t, err)

	assert.Equal(t, "EIC9wMKvsSf9RczSHQAXROeyOeeJj1uDCZzkbsoeOsA7", da.SAID)
	assert.Equal(t, "EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL", da.Issuer)
	assert.Equal(t, []string{
		"did:iota:testnet:0xBEEF",
		"did:keri:EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL",
	}, da.Aliases)
	assert.Equal(t, 2024, da.IssuedAt.Year())
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"missing said", `{"i": "E1", "a": {"ids": []}}`},
		{"missing issuer", `{"d": "E1", "a": {"ids": []}}`},
		{"missing attrs", `{"d": "E1", "i": "E2"}`},
		{"ids not strings", `{"d": "E1", "i": "E2", "a": {"ids": [1, 2]}}`},
		{"bad timestamp", `{"d": "E1", "i": "E2", "a": {"dt": "yesterday", "ids": []}}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestContentHashStability(t *testing.T) {
	da, err := Parse([]byte(validAttestation))
	require.NoError(t, err)

	h1, err := da.ContentHash()
	require.NoError(t, err)
	require.Len(t, h1, 64, "hex sha-256")

	h2, err := da.ContentHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "hashing is deterministic")
}

func TestContentHashChangesWithBody(t *testing.T) {
	da, err := Parse([]byte(validAttestation))
	require.NoError(t, err)
	original, err := da.ContentHash()
	require.NoError(t, err)

	t.Run("alias change", func(t *testing.T) {
		modified, err := Parse([]byte(`{
			"d": "EIC9wMKvsSf9RczSHQAXROeyOeeJj1uDCZzkbsoeOsA7",
			"i": "EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL",
			"s": "EN6Oh5XSD5_q2Hgu-aqpdfbVepdpYpFlgz6zvJL5b_r5",
			"a": {
				"dt": "2024-06-01T12:00:00Z",
				"ids": ["did:iota:testnet:0xD00D"]
			}
		}`))
		require.NoError(t, err)

		h, err := modified.ContentHash()
		require.NoError(t, err)
		assert.NotEqual(t, original, h)
	})

	t.Run("said field excluded", func(t *testing.T) {
		// Changing only the self-referential content address does not change
		// the hash of the body it addresses.
		modified, err := Parse([]byte(`{
			"d": "EDIFFERENT_SAID_________________________",
			"i": "EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL",
			"s": "EN6Oh5XSD5_q2Hgu-aqpdfbVepdpYpFlgz6zvJL5b_r5",
			"a": {
				"dt": "2024-06-01T12:00:00Z",
				"ids": ["did:iota:testnet:0xBEEF", "did:keri:EJe_sKQb1otKrz6COIL8VFvBv3DEFvtKaVFGn1vm0IlL"]
			}
		}`))
		require.NoError(t, err)

		h, err := modified.ContentHash()
		require.NoError(t, err)
		assert.Equal(t, original, h)
	})
}

func TestCanonicalizeDocumentNilInput(t *testing.T) {
	_, err := CanonicalizeDocument(nil)
	assert.Error(t, err)
}
