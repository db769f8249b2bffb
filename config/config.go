package config

import (
	"os"
	"strconv"
	"time"
)

// Default values
const (
	DefaultWebsResolverURL  = "https://resolver.example.com/1.0/identifiers"
	DefaultIotaResolverURL  = "https://iota-resolver.example.com/1.0/identifiers"
	DefaultAgentURL         = "http://localhost:3902"
	DefaultChainVerifierURL = "https://verifier.example.com"
	DefaultVerifyTimeout    = 30 * time.Second
	DefaultRetention        = 5 * time.Minute
	DefaultAliasCacheTTL    = 60 * time.Second
	DefaultExternalHostname = "localhost"
)

// Environment variable names
const (
	EnvWebsResolverURL  = "LINKAGE_WEBS_RESOLVER_URL"
	EnvIotaResolverURL  = "LINKAGE_IOTA_RESOLVER_URL"
	EnvAgentURL         = "LINKAGE_AGENT_URL"
	EnvChainVerifierURL = "LINKAGE_CHAIN_VERIFIER_URL"
	EnvVerifyTimeoutMS  = "LINKAGE_VERIFY_TIMEOUT_MS"
	EnvRetentionMS      = "LINKAGE_RETENTION_MS"
	EnvAliasCacheTTLMS  = "LINKAGE_ALIAS_CACHE_TTL_MS"
	EnvExternalHostname = "LINKAGE_EXTERNAL_HOSTNAME"
)

// WebsResolverURL returns the verifying did:webs resolver base URL.
func WebsResolverURL() string {
	if v := os.Getenv(EnvWebsResolverURL); v != "" {
		return v
	}
	return DefaultWebsResolverURL
}

// IotaResolverURL returns the ledger resolver base URL.
func IotaResolverURL() string {
	if v := os.Getenv(EnvIotaResolverURL); v != "" {
		return v
	}
	return DefaultIotaResolverURL
}

// AgentURL returns the KERI agent base URL used for key-state and event-log
// fetches.
func AgentURL() string {
	if v := os.Getenv(EnvAgentURL); v != "" {
		return v
	}
	return DefaultAgentURL
}

// ChainVerifierURL returns the external credential-chain verifier base URL.
func ChainVerifierURL() string {
	if v := os.Getenv(EnvChainVerifierURL); v != "" {
		return v
	}
	return DefaultChainVerifierURL
}

// VerifyTimeout returns the pending-verification deadline.
func VerifyTimeout() time.Duration {
	return durationFromEnv(EnvVerifyTimeoutMS, DefaultVerifyTimeout)
}

// Retention returns the completed-result retention window.
func Retention() time.Duration {
	return durationFromEnv(EnvRetentionMS, DefaultRetention)
}

// AliasCacheTTL returns the designated-aliases cache TTL.
func AliasCacheTTL() time.Duration {
	return durationFromEnv(EnvAliasCacheTTLMS, DefaultAliasCacheTTL)
}

// ExternalHostname returns the hostname under which DID documents are served.
func ExternalHostname() string {
	if v := os.Getenv(EnvExternalHostname); v != "" {
		return v
	}
	return DefaultExternalHostname
}

func durationFromEnv(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
