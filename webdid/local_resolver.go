package webdid

import (
	"context"
	"fmt"
	"strings"

	"github.com/pilacorp/go-did-linkage/common/model"
)

// ParseDIDWebs splits a did:webs identifier into its domain, optional path
// and the trailing KERI identifier.
func ParseDIDWebs(did string) (domain, path, aid string, err error) {
	rest, ok := strings.CutPrefix(did, "did:webs:")
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q is not a did:webs identifier", ErrInvalidIdentifier, did)
	}

	segments := strings.Split(rest, ":")
	if len(segments) < 2 {
		return "", "", "", fmt.Errorf("%w: %q has no identifier segment", ErrInvalidIdentifier, did)
	}

	aid = segments[len(segments)-1]
	if !IsValidIdentifier(aid) {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, aid)
	}

	domain = segments[0]
	path = strings.Join(segments[1:len(segments)-1], "/")

	return domain, path, aid, nil
}

// LocalResolver adapts the Publisher to the verifier's fallback contract:
// resolve a full did:webs identifier to the locally assembled, unverified
// document.
type LocalResolver struct {
	publisher *Publisher
}

// NewLocalResolver wraps a Publisher.
func NewLocalResolver(p *Publisher) *LocalResolver {
	return &LocalResolver{publisher: p}
}

// GetDIDDocument resolves did against the local publisher.
func (r *LocalResolver) GetDIDDocument(ctx context.Context, did string) (*model.DIDDocument, error) {
	domain, path, aid, err := ParseDIDWebs(did)
	if err != nil {
		return nil, err
	}
	return r.publisher.GetDIDDocument(ctx, aid, domain, path)
}
