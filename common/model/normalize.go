package model

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Normalize parses a raw identifier document into a DIDDocument. Resolvers in
// the wild emit loosely structured JSON: alsoKnownAs and controller may be a
// single string or an array, service endpoints may carry extra fields. All of
// that is normalized here, once, so internal logic always operates on
// list-typed fields.
func Normalize(raw []byte) (*DIDDocument, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("document is not valid JSON")
	}

	root := gjson.ParseBytes(raw)
	id := root.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("document has no id field")
	}

	doc := &DIDDocument{
		ID:          id,
		Context:     stringList(root.Get("@context")),
		AlsoKnownAs: stringList(root.Get("alsoKnownAs")),
		Controller:  stringList(root.Get("controller")),
	}

	root.Get("verificationMethod").ForEach(func(_, vm gjson.Result) bool {
		entry := VerificationMethodEntry{
			ID:                 vm.Get("id").String(),
			Type:               vm.Get("type").String(),
			Controller:         vm.Get("controller").String(),
			PublicKeyHex:       vm.Get("publicKeyHex").String(),
			PublicKeyMultibase: vm.Get("publicKeyMultibase").String(),
		}
		if jwk := vm.Get("publicKeyJwk"); jwk.Exists() {
			entry.PublicKeyJwk = &JWK{
				Kty: jwk.Get("kty").String(),
				Crv: jwk.Get("crv").String(),
				X:   jwk.Get("x").String(),
				Y:   jwk.Get("y").String(),
				Kid: jwk.Get("kid").String(),
			}
		}
		doc.VerificationMethod = append(doc.VerificationMethod, entry)
		return true
	})

	doc.Authentication = stringList(root.Get("authentication"))
	doc.AssertionMethod = stringList(root.Get("assertionMethod"))

	root.Get("service").ForEach(func(_, svc gjson.Result) bool {
		doc.Service = append(doc.Service, Service{
			ID:              svc.Get("id").String(),
			Type:            svc.Get("type").String(),
			ServiceEndpoint: serviceEndpoint(svc.Get("serviceEndpoint")),
		})
		return true
	})

	return doc, nil
}

// stringList accepts a JSON value that is either a single string or an array
// of strings and returns it as a list. Anything else yields nil.
func stringList(v gjson.Result) []string {
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		var out []string
		v.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.String {
				out = append(out, item.String())
			}
			return true
		})
		return out
	case v.Type == gjson.String:
		return []string{v.String()}
	default:
		return nil
	}
}

// serviceEndpoint flattens a serviceEndpoint that is either a plain URL or a
// map of transport to URL; the first URL wins for the map form.
func serviceEndpoint(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	var first string
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String && first == "" {
			first = item.String()
		}
		return first == ""
	})
	return first
}
