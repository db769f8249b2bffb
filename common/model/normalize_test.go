package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAliasListForms(t *testing.T) {
	t.Run("array form", func(t *testing.T) {
		doc, err := Normalize([]byte(`{
			"id": "did:iota:testnet:0xBEEF",
			"alsoKnownAs": ["did:webs:example.com:keri:AAA111", "did:keri:AAA111"]
		}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"did:webs:example.com:keri:AAA111", "did:keri:AAA111"}, doc.AlsoKnownAs)
	})

	t.Run("single string form", func(t *testing.T) {
		doc, err := Normalize([]byte(`{
			"id": "did:iota:testnet:0xBEEF",
			"alsoKnownAs": "did:webs:example.com:keri:AAA111"
		}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"did:webs:example.com:keri:AAA111"}, doc.AlsoKnownAs)
	})

	t.Run("absent", func(t *testing.T) {
		doc, err := Normalize([]byte(`{"id": "did:iota:testnet:0xBEEF"}`))
		require.NoError(t, err)
		assert.Nil(t, doc.AlsoKnownAs)
	})

	t.Run("non-string entries skipped", func(t *testing.T) {
		doc, err := Normalize([]byte(`{
			"id": "did:iota:testnet:0xBEEF",
			"alsoKnownAs": ["did:keri:AAA111", 42, null]
		}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"did:keri:AAA111"}, doc.AlsoKnownAs)
	})
}

func TestNormalizeControllerForms(t *testing.T) {
	doc, err := Normalize([]byte(`{"id": "did:x:1", "controller": "did:x:2"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"did:x:2"}, doc.Controller)

	doc, err = Normalize([]byte(`{"id": "did:x:1", "controller": ["did:x:2", "did:x:3"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"did:x:2", "did:x:3"}, doc.Controller)
}

func TestNormalizeVerificationMethods(t *testing.T) {
	doc, err := Normalize([]byte(`{
		"id": "did:webs:example.com:keri:AAA111",
		"verificationMethod": [{
			"id": "did:webs:example.com:keri:AAA111#key-1",
			"type": "JsonWebKey2020",
			"controller": "did:webs:example.com:keri:AAA111",
			"publicKeyJwk": {"kty": "OKP", "crv": "Ed25519", "x": "abc"}
		}]
	}`))
	require.NoError(t, err)

	require.Len(t, doc.VerificationMethod, 1)
	vm := doc.VerificationMethod[0]
	assert.Equal(t, "JsonWebKey2020", vm.Type)
	require.NotNil(t, vm.PublicKeyJwk)
	assert.Equal(t, "Ed25519", vm.PublicKeyJwk.Crv)
}

func TestNormalizeServiceEndpointForms(t *testing.T) {
	doc, err := Normalize([]byte(`{
		"id": "did:x:1",
		"service": [
			{"id": "#a", "type": "Agent", "serviceEndpoint": "https://a.example.com"},
			{"id": "#b", "type": "Agent", "serviceEndpoint": {"http": "https://b.example.com"}}
		]
	}`))
	require.NoError(t, err)

	require.Len(t, doc.Service, 2)
	assert.Equal(t, "https://a.example.com", doc.Service[0].ServiceEndpoint)
	assert.Equal(t, "https://b.example.com", doc.Service[1].ServiceEndpoint)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Normalize([]byte(`not json`))
	assert.Error(t, err)

	_, err = Normalize([]byte(`{"alsoKnownAs": ["x"]}`))
	assert.Error(t, err, "missing id")
}
