package credential

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// vocabContext maps every credential field to an IRI so that URDNA2015
// canonicalization preserves all of them. Attestation bodies are compact
// JSON, not JSON-LD, so the vocabulary is injected before normalization.
var vocabContext = map[string]interface{}{
	"@vocab": "https://pila.vn/ns/designated-aliases#",
}

// CanonicalizeDocument canonicalizes a document with URDNA2015 and returns
// the resulting n-quads bytes.
func CanonicalizeDocument(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	input := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		input[k] = v
	}
	if _, ok := input["@context"]; !ok {
		input["@context"] = vocabContext
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015

	canonicalized, err := processor.Normalize(input, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	return []byte(canonicalized.(string)), nil
}
