// Package secrets resolves the Connect API credentials the service runs with.
package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/metrics"
	"github.com/Checker-Finance/connect-reports/pkg/config"
	pkgsecrets "github.com/Checker-Finance/connect-reports/pkg/secrets"
	"github.com/Checker-Finance/connect-reports/pkg/utils"
)

// Credentials is what the Connect client needs to authenticate.
type Credentials struct {
	Token   string
	BaseURL string
}

// Resolver produces the Connect credentials for this deployment.
type Resolver interface {
	Resolve(ctx context.Context) (Credentials, error)
}

// AWSResolver fetches Connect credentials from AWS Secrets Manager with a
// local TTL cache in front.
//
// Secret naming convention: {env}/connect (CONNECT_SECRET_NAME)
// Secret JSON format:       {"api_token": "ApiKey SU-...", "base_url": "https://..."}
type AWSResolver struct {
	logger     *zap.Logger
	secretName string
	provider   pkgsecrets.Provider
	cache      *pkgsecrets.Cache[Credentials]
}

// NewAWSResolver constructs a credentials resolver backed by AWS Secrets Manager.
func NewAWSResolver(logger *zap.Logger, secretName string, provider pkgsecrets.Provider, cache *pkgsecrets.Cache[Credentials]) *AWSResolver {
	return &AWSResolver{
		logger:     logger,
		secretName: secretName,
		provider:   provider,
		cache:      cache,
	}
}

// Resolve fetches or returns the cached Connect credentials.
func (r *AWSResolver) Resolve(ctx context.Context) (Credentials, error) {
	key := r.secretName

	if creds, ok := r.cache.Get(key); ok {
		metrics.IncCacheHit("hit")
		return creds, nil
	}
	metrics.IncCacheHit("miss")

	raw, err := r.provider.GetSecret(ctx, key)
	if err != nil {
		metrics.IncError("secrets", "fetch_failed")
		return Credentials{}, fmt.Errorf("fetch secret %q: %w", key, err)
	}

	creds, err := parseCredentials(raw)
	if err != nil {
		metrics.IncError("secrets", "parse_failed")
		return Credentials{}, fmt.Errorf("secret %q: %w", key, err)
	}

	r.cache.Put(key, creds)
	r.logger.Info("secrets.credentials_resolved",
		zap.String("secret", key),
		zap.String("token", utils.MaskToken(creds.Token)))
	return creds, nil
}

// parseCredentials extracts Credentials from the raw AWS secret map.
func parseCredentials(m map[string]string) (Credentials, error) {
	creds := Credentials{
		Token:   m["api_token"],
		BaseURL: m["base_url"],
	}
	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("missing required field 'api_token'")
	}
	if creds.BaseURL == "" {
		return Credentials{}, fmt.Errorf("missing required field 'base_url'")
	}
	return creds, nil
}

// EnvResolver serves credentials straight from the environment. Used when no
// secret name is configured, typically in local development.
type EnvResolver struct {
	creds Credentials
}

// NewEnvResolver wraps the statically configured credentials.
func NewEnvResolver(cfg *config.Config) *EnvResolver {
	return &EnvResolver{creds: Credentials{
		Token:   cfg.ConnectToken,
		BaseURL: cfg.ConnectBaseURL,
	}}
}

func (r *EnvResolver) Resolve(context.Context) (Credentials, error) {
	if r.creds.Token == "" {
		return Credentials{}, fmt.Errorf("CONNECT_TOKEN is not set")
	}
	if r.creds.BaseURL == "" {
		return Credentials{}, fmt.Errorf("CONNECT_BASE_URL is not set")
	}
	return r.creds, nil
}
