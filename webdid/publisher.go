package webdid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pilacorp/go-did-linkage/common/credential"
	"github.com/pilacorp/go-did-linkage/common/model"
)

// DefaultCacheTTL bounds how long a designated-aliases credential is served
// from cache before the store is consulted again.
const DefaultCacheTTL = 60 * time.Second

var (
	// ErrInvalidIdentifier marks a malformed identifier path parameter.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNoKeyState is returned when neither the key-state source nor the
	// direct fallback could produce key state for the subject.
	ErrNoKeyState = errors.New("no key state for subject")
)

// Config holds publisher construction parameters.
type Config struct {
	Source    KeyStateSource  // primary key-state source, required
	Fallback  KeyStateSource  // direct HTTP fallback, optional
	EventLogs EventLogSource  // event-log export source, required for GetEventLog
	Store     CredentialStore // designated-aliases credential store, optional
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

// Publisher assembles DID documents from key-state snapshots and serves the
// append-only event export, merged with the subject's cached self-issued
// designated-aliases credential.
type Publisher struct {
	source    KeyStateSource
	fallback  KeyStateSource
	eventLogs EventLogSource
	store     CredentialStore
	cache     *aliasCache
	logger    *zap.Logger
}

// New creates a Publisher.
func New(cfg Config) *Publisher {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Publisher{
		source:    cfg.Source,
		fallback:  cfg.Fallback,
		eventLogs: cfg.EventLogs,
		store:     cfg.Store,
		logger:    cfg.Logger,
	}
	p.cache = newAliasCache(cfg.CacheTTL, p.fetchDesignatedAliases)

	return p
}

// DIDWebs builds the did:webs identifier served under domain/path for aid.
func DIDWebs(domain, path, aid string) string {
	return "did:webs:" + joinDIDPath(domain, path) + ":" + aid
}

// DIDWeb builds the namespace-equivalent did:web identifier.
func DIDWeb(domain, path, aid string) string {
	return "did:web:" + joinDIDPath(domain, path) + ":" + aid
}

func joinDIDPath(domain, path string) string {
	out := domain
	if path != "" {
		out += ":" + strings.ReplaceAll(strings.Trim(path, "/"), "/", ":")
	}
	return out
}

// GetDIDDocument assembles the DID document for aid as served under the
// given domain and optional path. Alias candidates come from the cached
// designated-aliases credential; the two namespace-equivalent synthetic
// aliases are always present. Key material comes from the key-state source,
// falling back to the direct agent fetch.
func (p *Publisher) GetDIDDocument(ctx context.Context, aid, domain, path string) (*model.DIDDocument, error) {
	if !IsValidIdentifier(aid) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, aid)
	}

	did := DIDWebs(domain, path, aid)

	var aliases []string
	cred, err := p.cache.get(ctx, aid)
	if err != nil {
		p.logger.Debug("designated-aliases credential unavailable",
			zap.String("aid", aid), zap.Error(err))
	} else if cred != nil && len(cred.Aliases) > 0 {
		aliases = append(aliases, cred.Aliases...)
	}

	for _, synthetic := range []string{"did:keri:" + aid, DIDWeb(domain, path, aid)} {
		if !lo.Contains(aliases, synthetic) {
			aliases = append(aliases, synthetic)
		}
	}

	state, err := p.keyState(ctx, aid)
	if err != nil {
		return nil, err
	}

	doc := &model.DIDDocument{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/ed25519-2020/v1",
		},
		ID:          did,
		AlsoKnownAs: lo.Uniq(aliases),
	}

	for _, key := range state.CurrentSigningKey {
		entry, err := verificationMethodFromKey(did, key)
		if err != nil {
			p.logger.Warn("skipping unsupported signing key",
				zap.String("aid", aid), zap.Error(err))
			continue
		}
		doc.VerificationMethod = append(doc.VerificationMethod, entry)
		doc.Authentication = append(doc.Authentication, entry.ID)
		doc.AssertionMethod = append(doc.AssertionMethod, entry.ID)
	}

	return doc, nil
}

// GetEventLog returns the raw event-log export for aid with the
// designated-aliases credential fragment appended when available, so that
// resolvers can verify alias claims from the log alone. The fragment's
// absence never fails the call.
func (p *Publisher) GetEventLog(ctx context.Context, aid string) ([]byte, error) {
	if !IsValidIdentifier(aid) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, aid)
	}

	base, err := p.eventLogs.GetEventLog(ctx, aid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event log: %w", err)
	}

	cred, err := p.cache.get(ctx, aid)
	if err != nil || cred == nil {
		return base, nil
	}

	fragment, err := p.store.GetCredentialEventExport(ctx, cred.SAID)
	if err != nil {
		p.logger.Warn("credential event export unavailable",
			zap.String("aid", aid), zap.String("said", cred.SAID), zap.Error(err))
		return base, nil
	}

	return append(base, fragment...), nil
}

// DesignatedAliases returns the subject's cached designated-aliases
// credential, or nil when none is issued.
func (p *Publisher) DesignatedAliases(ctx context.Context, aid string) (*credential.DesignatedAliases, error) {
	if !IsValidIdentifier(aid) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, aid)
	}
	return p.cache.get(ctx, aid)
}

// keyState consults the primary source first, then the direct fallback.
func (p *Publisher) keyState(ctx context.Context, aid string) (*KeyState, error) {
	var sourceErr error
	if p.source != nil {
		state, err := p.source.GetKeyState(ctx, aid)
		if err == nil {
			return state, nil
		}
		sourceErr = err
		p.logger.Warn("key-state source failed, trying direct fetch",
			zap.String("aid", aid), zap.Error(err))
	}

	if p.fallback != nil {
		state, err := p.fallback.GetKeyState(ctx, aid)
		if err == nil {
			return state, nil
		}
		return nil, fmt.Errorf("%w %s: source: %v, fallback: %v", ErrNoKeyState, aid, sourceErr, err)
	}

	return nil, fmt.Errorf("%w %s: %v", ErrNoKeyState, aid, sourceErr)
}

// fetchDesignatedAliases picks the most recent designated-aliases credential
// issued by aid. A subject with none returns nil without error.
func (p *Publisher) fetchDesignatedAliases(ctx context.Context, aid string) (*credential.DesignatedAliases, error) {
	if p.store == nil {
		return nil, nil
	}

	creds, err := p.store.ListCredentials(ctx, aid, credential.SchemaSAID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}

	latest := creds[0]
	for _, c := range creds[1:] {
		if c.IssuedAt.After(latest.IssuedAt) {
			latest = c
		}
	}

	return latest, nil
}
