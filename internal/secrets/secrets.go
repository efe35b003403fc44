// Package secrets materializes key/value secrets from an encrypted vault
// document. Decryption is delegated to an external tool (ansible-vault by
// default); this package resolves file locations, runs the tool, parses the
// plaintext YAML and optionally copies the result into the process
// environment.
//
// Load is side-effect free. ExportToEnvironment is the only operation that
// mutates process state. Nothing is cached between calls: each Load runs the
// decryption command again.
package secrets

import "context"

// Provider identifies the secret backend.
type Provider string

const (
	ProviderAnsibleVault Provider = "ansible-vault"
)

// Mapping is a decrypted secrets document: top-level keys to scalar or
// nested YAML values.
type Mapping map[string]any

// Reference identifies a single secret value in a store.
type Reference struct {
	Name     string
	Provider Provider
	Key      string
}

// Store resolves secret references to plaintext values.
type Store interface {
	Resolve(ctx context.Context, ref Reference) (string, error)
}
