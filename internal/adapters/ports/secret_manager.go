package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string            // The secret value (e.g., provider API token)
	Version  string            // Secret version identifier
	Metadata map[string]string // Additional secret metadata
}

// SecretManagerAdapter defines the port for reading secrets from a secret management service.
// Supports AWS Secrets Manager, HashiCorp Vault and a local directory for development.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - AWS: "bnpl-service/provider/api-token" or a full ARN
	//   - Vault: "bnpl-service/provider" (KV v2, key "value")
	//   - Local: file path relative to the base directory
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
