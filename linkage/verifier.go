// Package linkage orchestrates the verification that a did:webs identifier
// and a did:iota identifier are controlled by the same legal entity: both
// documents are resolved, their alias lists cross-checked for bidirectional
// references, and the subject's credential chain is verified up to the root
// of trust through an external verifier.
package linkage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pilacorp/go-did-linkage/common/model"
	"github.com/pilacorp/go-did-linkage/registry"
)

// IotaPrefix is the namespace prefix of the paired ledger identifiers.
const IotaPrefix = "did:iota:"

// ErrResolution is returned when both resolution strategies for the subject
// document failed.
var ErrResolution = errors.New("failed to resolve subject document")

// websResolver resolves a did:webs identifier and cryptographically proves
// the returned document, including any linked designated-aliases credential.
// It must fail rather than degrade.
type websResolver interface {
	ResolveWebsDID(ctx context.Context, did string) (*model.DIDDocument, error)
}

// localResolver serves the locally assembled document without independent
// verification; used as fallback when the verifying resolver is unavailable.
type localResolver interface {
	GetDIDDocument(ctx context.Context, did string) (*model.DIDDocument, error)
}

// iotaResolver resolves the paired ledger identifier.
type iotaResolver interface {
	ResolveIotaDID(ctx context.Context, did string) (*model.DIDDocument, error)
}

// chainVerifier presents the subject's credential chain to the external
// root-of-trust verifier and awaits the webhook-delivered outcome.
type chainVerifier interface {
	VerifyCredential(ctx context.Context, subjectDID string) (registry.Completed, error)
}

// Config holds verifier construction parameters.
type Config struct {
	Webs   websResolver
	Local  localResolver
	Iota   iotaResolver
	Chain  chainVerifier
	Logger *zap.Logger
}

// Verifier performs one linkage verification pass per call. It keeps no
// state between calls and never retries internally; callers may retry the
// whole call.
type Verifier struct {
	webs   websResolver
	local  localResolver
	iota   iotaResolver
	chain  chainVerifier
	logger *zap.Logger
}

// New creates a Verifier.
func New(cfg Config) *Verifier {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Verifier{
		webs:   cfg.Webs,
		local:  cfg.Local,
		iota:   cfg.Iota,
		chain:  cfg.Chain,
		logger: cfg.Logger,
	}
}

// Verify validates the linkage for subjectDID. Resolution of the subject
// document is the only fatal step; everything downstream folds its failures
// into the result so partial linkage stays observable.
func (v *Verifier) Verify(ctx context.Context, subjectDID string) (*Result, error) {
	doc, proven, err := v.resolveSubject(ctx, subjectDID)
	if err != nil {
		return nil, err
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("resolved document for %s has no identifier", subjectDID)
	}
	if doc.ID != subjectDID {
		v.logger.Warn("resolved document id differs from requested DID",
			zap.String("requested", subjectDID), zap.String("resolved", doc.ID))
	}

	result := &Result{
		WebsDocument: doc,
		WebsAliases:  doc.AlsoKnownAs,
		DAVerified:   proven && len(doc.AlsoKnownAs) > 0,
	}

	result.IotaDID = extractIotaDID(doc.AlsoKnownAs)
	result.ServiceEndpoint = extractServiceEndpoint(doc.Service)

	if result.IotaDID != "" {
		iotaDoc, err := v.iota.ResolveIotaDID(ctx, result.IotaDID)
		if err != nil {
			// The ledger being unreachable must not abort the independent
			// credential-chain check.
			result.ResolutionNote = fmt.Sprintf("iota resolution failed: %v", err)
			v.logger.Warn("paired document resolution failed",
				zap.String("iotaDid", result.IotaDID), zap.Error(err))
		} else {
			result.IotaDocument = iotaDoc
			result.IotaAliases = iotaDoc.AlsoKnownAs
			result.Bidirectional = lo.Contains(iotaDoc.AlsoKnownAs, subjectDID)
		}
	}

	completed, err := v.chain.VerifyCredential(ctx, subjectDID)
	if err != nil {
		result.Completed = registry.Completed{
			Verified:   false,
			SubjectDID: subjectDID,
			Timestamp:  time.Now(),
			Error:      err.Error(),
		}
	} else {
		result.Completed = completed
	}

	v.logger.Info("linkage verification finished",
		zap.String("subjectDid", subjectDID),
		zap.Bool("verified", result.Verified),
		zap.Bool("bidirectional", result.Bidirectional),
		zap.Bool("daVerified", result.DAVerified))

	return result, nil
}

// resolveSubject tries the verifying resolver first and falls back to the
// local publisher-backed document. The second return reports whether the
// verifying path succeeded.
func (v *Verifier) resolveSubject(ctx context.Context, subjectDID string) (*model.DIDDocument, bool, error) {
	doc, websErr := v.webs.ResolveWebsDID(ctx, subjectDID)
	if websErr == nil {
		return doc, true, nil
	}

	v.logger.Warn("verifying resolver failed, falling back to local document",
		zap.String("subjectDid", subjectDID), zap.Error(websErr))

	doc, localErr := v.local.GetDIDDocument(ctx, subjectDID)
	if localErr == nil {
		return doc, false, nil
	}

	return nil, false, fmt.Errorf("%w %s: verifying resolver: %v; local resolver: %v",
		ErrResolution, subjectDID, websErr, localErr)
}

// extractIotaDID picks the paired ledger identifier out of the alias list by
// namespace prefix. No designated did:iota alias is not an error.
func extractIotaDID(aliases []string) string {
	match, found := lo.Find(aliases, func(alias string) bool {
		return strings.HasPrefix(alias, IotaPrefix)
	})
	if !found {
		return ""
	}
	return match
}

// extractServiceEndpoint returns the first usable service endpoint,
// best-effort.
func extractServiceEndpoint(services []model.Service) string {
	for _, svc := range services {
		if svc.ServiceEndpoint != "" {
			return svc.ServiceEndpoint
		}
	}
	return ""
}
