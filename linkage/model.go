package linkage

import (
	"github.com/pilacorp/go-did-linkage/common/model"
	"github.com/pilacorp/go-did-linkage/registry"
)

// Result is the outcome of one linkage verification pass. The embedded
// Completed carries the credential-chain verdict; the linkage fields report
// what document resolution and the alias cross-check found. Verified and
// Bidirectional are independent flags over independent sub-checks.
type Result struct {
	registry.Completed

	// WebsDocument is the resolved subject document.
	WebsDocument *model.DIDDocument `json:"websDocument,omitempty"`

	// IotaDocument is the resolved paired document; nil when the subject
	// designates no did:iota alias or the ledger resolution failed.
	IotaDocument *model.DIDDocument `json:"iotaDocument,omitempty"`

	WebsAliases []string `json:"websAliases,omitempty"`
	IotaAliases []string `json:"iotaAliases,omitempty"`

	// IotaDID is the paired identifier extracted from the subject's alias
	// list, empty when none is designated.
	IotaDID string `json:"iotaDid,omitempty"`

	// ServiceEndpoint is the subject's first service endpoint, best-effort.
	ServiceEndpoint string `json:"serviceEndpoint,omitempty"`

	// Bidirectional is true when the paired document's alias list names the
	// subject identifier exactly.
	Bidirectional bool `json:"bidirectional"`

	// DAVerified is true only when the subject document came from the
	// verifying resolver and carried a non-empty alias list, meaning the
	// designated-aliases credential was cryptographically proven as part of
	// resolution.
	DAVerified bool `json:"daVerified"`

	// ResolutionNote records non-fatal resolution degradations, such as an
	// unreachable ledger resolver.
	ResolutionNote string `json:"resolutionNote,omitempty"`
}
