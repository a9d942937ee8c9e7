package gateways

import (
	"fmt"

	"github.com/ochairo/specimen/internal/external-adapters/gpg"
)

// gpgVerifier authenticates signature databases against a keyring file
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// VerifyDetached checks sigPath over data using only the keys in keyringPath.
// Keys from earlier calls are discarded first.
func (g *gpgVerifier) VerifyDetached(data []byte, sigPath, keyringPath string) (*gpg.Signer, error) {
	g.verifier.ClearKeyring()
	if err := g.verifier.ImportKeyFromFile(keyringPath); err != nil {
		return nil, fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	if g.verifier.GetKeyringSize() == 0 {
		return nil, fmt.Errorf("keyring %s contains no keys", keyringPath)
	}

	signer, err := g.verifier.VerifySignatureFile(data, sigPath)
	if err != nil {
		return nil, fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return signer, nil
}
