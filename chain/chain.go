// Package chain bridges the external credential-chain verifier to the
// pending-verification registry. Presenting a credential chain is
// asynchronous: the external verifier walks issuer accreditations up to the
// root of trust and reports the outcome through a webhook, so the present
// step registers a pending entry and the await step blocks on it.
package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pilacorp/go-did-linkage/registry"
)

// Presenter starts one credential presentation with the external verifier
// and returns the content hash of the presented credential plus the
// legal-entity identifier it names. The eventual verdict arrives out-of-band
// via the webhook that calls registry.Resolve.
type Presenter interface {
	Present(ctx context.Context, subjectDID string) (credentialSAID, legalEntityID string, err error)
}

// Verifier presents a subject's credential chain and awaits the
// webhook-delivered outcome through the registry.
type Verifier struct {
	presenter Presenter
	registry  *registry.Registry
	logger    *zap.Logger
}

// New creates a chain verifier.
func New(presenter Presenter, reg *registry.Registry, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{presenter: presenter, registry: reg, logger: logger}
}

// VerifyCredential presents the subject's credential chain and blocks until
// the registry delivers the outcome or the deadline fires. A timeout is a
// normal result with Verified=false, not an error; only a failed
// presentation is.
func (v *Verifier) VerifyCredential(ctx context.Context, subjectDID string) (registry.Completed, error) {
	credentialSAID, legalEntityID, err := v.presenter.Present(ctx, subjectDID)
	if err != nil {
		return registry.Completed{}, fmt.Errorf("failed to present credential chain for %s: %w", subjectDID, err)
	}

	v.logger.Info("credential chain presented, awaiting callback",
		zap.String("subjectDid", subjectDID),
		zap.String("credentialSaid", credentialSAID))

	result := v.registry.Await(ctx, credentialSAID, subjectDID, legalEntityID)
	v.registry.StoreCompleted(result)

	return result, nil
}
