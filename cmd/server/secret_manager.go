package main

import (
	"context"
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/adapters/ports"
	"github.com/kevin07696/bnpl-service/internal/adapters/secrets"
	"github.com/kevin07696/bnpl-service/internal/config"
	"go.uber.org/zap"
)

// initSecretManager initializes the secret manager selected by SECRET_BACKEND
// Supports:
//   - aws: AWS Secrets Manager (AWS_REGION, optional AWS_SECRETS_ENDPOINT for LocalStack)
//   - vault: HashiCorp Vault KV v2 (VAULT_ADDR, VAULT_TOKEN)
//   - local: files under LOCAL_SECRETS_PATH (development only)
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Secrets.Backend {
	case "aws":
		smCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		smCfg.Endpoint = cfg.Secrets.AWSEndpoint
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, smCfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("AWS Secrets Manager initialized",
			zap.String("region", smCfg.Region),
			zap.Duration("cache_ttl", smCfg.CacheTTL),
		)
		return sm, nil

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress, cfg.Secrets.VaultToken)
		sm, err := secrets.NewVaultAdapter(vaultCfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Vault secret manager initialized",
			zap.String("address", vaultCfg.Address),
			zap.String("mount", vaultCfg.MountPath),
		)
		return sm, nil

	default:
		logger.Warn("Using LOCAL secret manager - NOT for production use!",
			zap.String("path", cfg.Secrets.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger), nil
	}
}

// resolveProviderToken prefers the inline token, then the configured secret
func resolveProviderToken(ctx context.Context, cfg *config.Config, sm ports.SecretManagerAdapter) (string, error) {
	if cfg.Provider.APIToken != "" {
		return cfg.Provider.APIToken, nil
	}
	secret, err := sm.GetSecret(ctx, cfg.Provider.APITokenSecret)
	if err != nil {
		return "", fmt.Errorf("read provider API token %q: %w", cfg.Provider.APITokenSecret, err)
	}
	return secret.Value, nil
}
