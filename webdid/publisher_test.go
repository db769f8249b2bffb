package webdid

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-did-linkage/common/credential"
)

var (
	testAID = "E" + strings.Repeat("A", 43)
	testKey = "D" + strings.Repeat("B", 43)
)

type fakeKeyStates struct {
	state *KeyState
	err   error
	calls atomic.Int32
}

func (f *fakeKeyStates) GetKeyState(_ context.Context, _ string) (*KeyState, error) {
	f.calls.Add(1)
	return f.state, f.err
}

type fakeEventLogs struct {
	log []byte
	err error
}

func (f *fakeEventLogs) GetEventLog(_ context.Context, _ string) ([]byte, error) {
	return f.log, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	creds     []*credential.DesignatedAliases
	listErr   error
	export    []byte
	exportErr error
	listCalls int
}

func (f *fakeStore) ListCredentials(_ context.Context, _, _ string) ([]*credential.DesignatedAliases, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.creds, f.listErr
}

func (f *fakeStore) GetCredentialEventExport(_ context.Context, _ string) ([]byte, error) {
	return f.export, f.exportErr
}

func goodKeyState() *KeyState {
	return &KeyState{
		Identifier:        testAID,
		SequenceNumber:    "0",
		CurrentSigningKey: []string{testKey},
	}
}

func aliasCredential(aliases ...string) *credential.DesignatedAliases {
	return &credential.DesignatedAliases{
		SAID:     "SAID-1",
		Issuer:   testAID,
		Aliases:  aliases,
		IssuedAt: time.Now(),
	}
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier(testAID))
	assert.True(t, IsValidIdentifier("D"+strings.Repeat("x", 40)+"-_9"))

	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier(testAID[:43]), "too short")
	assert.False(t, IsValidIdentifier(testAID+"A"), "too long")
	assert.False(t, IsValidIdentifier("E"+strings.Repeat("A", 42)+"!"), "bad alphabet")
	assert.False(t, IsValidIdentifier("E"+strings.Repeat("A", 42)+"+"), "standard base64 alphabet rejected")
}

func TestDecodeQB64(t *testing.T) {
	raw, err := decodeQB64(testKey)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	_, err = decodeQB64("D" + strings.Repeat("B", 42))
	assert.Error(t, err)

	_, err = decodeQB64("X" + strings.Repeat("B", 43))
	assert.Error(t, err, "unsupported code")
}

func TestGetDIDDocument(t *testing.T) {
	store := &fakeStore{creds: []*credential.DesignatedAliases{
		aliasCredential("did:iota:testnet:0xBEEF"),
	}}
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
		Store:     store,
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.NoError(t, err)

	assert.Equal(t, "did:webs:example.com:"+testAID, doc.ID)
	assert.Equal(t, []string{
		"did:iota:testnet:0xBEEF",
		"did:keri:" + testAID,
		"did:web:example.com:" + testAID,
	}, doc.AlsoKnownAs)

	require.Len(t, doc.VerificationMethod, 1)
	vm := doc.VerificationMethod[0]
	assert.Equal(t, doc.ID+"#"+testKey, vm.ID)
	assert.Equal(t, "Ed25519VerificationKey2020", vm.Type)
	assert.True(t, strings.HasPrefix(vm.PublicKeyMultibase, "z"))
	require.NotNil(t, vm.PublicKeyJwk)
	assert.Equal(t, "OKP", vm.PublicKeyJwk.Kty)
	assert.Equal(t, "Ed25519", vm.PublicKeyJwk.Crv)

	assert.Equal(t, []string{vm.ID}, doc.Authentication)
	assert.Equal(t, []string{vm.ID}, doc.AssertionMethod)
}

func TestGetDIDDocumentWithPath(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "dids/issuer")
	require.NoError(t, err)
	assert.Equal(t, "did:webs:example.com:dids:issuer:"+testAID, doc.ID)
	assert.Contains(t, doc.AlsoKnownAs, "did:web:example.com:dids:issuer:"+testAID)
}

func TestGetDIDDocumentWithoutAliasCredential(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
		Store:     &fakeStore{},
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.NoError(t, err)

	// Only the two synthetic aliases remain.
	assert.Equal(t, []string{
		"did:keri:" + testAID,
		"did:web:example.com:" + testAID,
	}, doc.AlsoKnownAs)
}

func TestGetDIDDocumentStoreFailureIsNotFatal(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
		Store:     &fakeStore{listErr: errors.New("store down")},
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.NoError(t, err)
	assert.Len(t, doc.AlsoKnownAs, 2)
}

func TestGetDIDDocumentFallsBackToDirectFetch(t *testing.T) {
	primary := &fakeKeyStates{err: errors.New("agent unavailable")}
	fallback := &fakeKeyStates{state: goodKeyState()}
	p := New(Config{
		Source:    primary,
		Fallback:  fallback,
		EventLogs: &fakeEventLogs{},
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.NoError(t, err)
	assert.Len(t, doc.VerificationMethod, 1)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())
}

func TestGetDIDDocumentNoKeyState(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{err: errors.New("source down")},
		Fallback:  &fakeKeyStates{err: errors.New("fallback down")},
		EventLogs: &fakeEventLogs{},
	})

	_, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoKeyState)
	assert.Contains(t, err.Error(), "source down")
	assert.Contains(t, err.Error(), "fallback down")
}

func TestGetDIDDocumentRejectsMalformedIdentifier(t *testing.T) {
	p := New(Config{Source: &fakeKeyStates{state: goodKeyState()}})

	_, err := p.GetDIDDocument(context.Background(), "not-an-aid", "example.com", "")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestGetEventLogAppendsCredentialFragment(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{log: []byte("KEL|")},
		Store: &fakeStore{
			creds:  []*credential.DesignatedAliases{aliasCredential("did:iota:testnet:0xBEEF")},
			export: []byte("ACDC"),
		},
	})

	log, err := p.GetEventLog(context.Background(), testAID)
	require.NoError(t, err)
	assert.Equal(t, []byte("KEL|ACDC"), log)
}

func TestGetEventLogFragmentFailureReturnsBaseLog(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{log: []byte("KEL")},
		Store: &fakeStore{
			creds:     []*credential.DesignatedAliases{aliasCredential("did:iota:testnet:0xBEEF")},
			exportErr: errors.New("export unavailable"),
		},
	})

	log, err := p.GetEventLog(context.Background(), testAID)
	require.NoError(t, err)
	assert.Equal(t, []byte("KEL"), log)
}

func TestGetEventLogBaseFailureIsFatal(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{err: errors.New("agent down")},
	})

	_, err := p.GetEventLog(context.Background(), testAID)
	assert.Error(t, err)
}

func TestAliasCacheTTL(t *testing.T) {
	store := &fakeStore{creds: []*credential.DesignatedAliases{
		aliasCredential("did:iota:testnet:0xBEEF"),
	}}
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
		Store:     store,
		CacheTTL:  50 * time.Millisecond,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := p.GetDIDDocument(ctx, testAID, "example.com", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.listCalls, "within the TTL one fetch serves all calls")

	time.Sleep(80 * time.Millisecond)

	_, err := p.GetDIDDocument(ctx, testAID, "example.com", "")
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "after the TTL the store is consulted again")
}

func TestMostRecentCredentialWins(t *testing.T) {
	older := aliasCredential("did:iota:testnet:0xOLD")
	older.IssuedAt = time.Now().Add(-time.Hour)
	newer := aliasCredential("did:iota:testnet:0xNEW")

	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
		Store:     &fakeStore{creds: []*credential.DesignatedAliases{older, newer}},
	})

	doc, err := p.GetDIDDocument(context.Background(), testAID, "example.com", "")
	require.NoError(t, err)
	assert.Contains(t, doc.AlsoKnownAs, "did:iota:testnet:0xNEW")
	assert.NotContains(t, doc.AlsoKnownAs, "did:iota:testnet:0xOLD")
}

func TestParseDIDWebs(t *testing.T) {
	domain, path, aid, err := ParseDIDWebs("did:webs:example.com:" + testAID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
	assert.Empty(t, path)
	assert.Equal(t, testAID, aid)

	domain, path, aid, err = ParseDIDWebs("did:webs:example.com:dids:issuer:" + testAID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
	assert.Equal(t, "dids/issuer", path)
	assert.Equal(t, testAID, aid)

	_, _, _, err = ParseDIDWebs("did:web:example.com:" + testAID)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, _, _, err = ParseDIDWebs("did:webs:example.com:short")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestLocalResolver(t *testing.T) {
	p := New(Config{
		Source:    &fakeKeyStates{state: goodKeyState()},
		EventLogs: &fakeEventLogs{},
	})
	r := NewLocalResolver(p)

	doc, err := r.GetDIDDocument(context.Background(), "did:webs:example.com:"+testAID)
	require.NoError(t, err)
	assert.Equal(t, "did:webs:example.com:"+testAID, doc.ID)

	_, err = r.GetDIDDocument(context.Background(), "did:iota:testnet:0xBEEF")
	assert.Error(t, err)
}
