// Package gpg provides detached OpenPGP signature verification for signature databases.
package gpg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// armoredSignaturePrefix starts every ASCII-armored detached signature
const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

// maxSignatureSize bounds how much of a signature file is read; real signatures are well under 1KB
const maxSignatureSize = 64 * 1024

// Verifier checks detached signatures against an in-memory keyring built with ProtonMail's go-crypto
type Verifier struct {
	keyring openpgp.EntityList
}

// Signer identifies the key that produced a valid signature
type Signer struct {
	KeyID       string
	Fingerprint string
	Identity    string
}

// NewVerifier creates a verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyFromFile imports public keys from an armored or binary keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is operator-provided keyring location
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	return v.ImportKeys(data)
}

// ImportKeys imports public keys from armored or binary keyring bytes
func (v *Verifier) ImportKeys(data []byte) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// Verify checks a detached signature, armored or binary, over signed
func (v *Verifier) Verify(signed, signature io.Reader) (*Signer, error) {
	if len(v.keyring) == 0 {
		return nil, fmt.Errorf("no GPG keys imported, import a keyring first")
	}

	sig := bufio.NewReader(io.LimitReader(signature, maxSignatureSize))
	peek, _ := sig.Peek(len(armoredSignaturePrefix))
	isArmored := string(peek) == armoredSignaturePrefix

	var (
		entity *openpgp.Entity
		err    error
	)
	if isArmored {
		entity, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	} else {
		entity, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	return describeSigner(entity), nil
}

// VerifySignatureFile verifies a detached signature file over bytes already held in memory
func (v *Verifier) VerifySignatureFile(signed []byte, sigPath string) (*Signer, error) {
	//nolint:gosec // G304: sigPath is operator-provided signature location
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer sigFile.Close()

	return v.Verify(bytes.NewReader(signed), sigFile)
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}

func describeSigner(entity *openpgp.Entity) *Signer {
	signer := &Signer{}
	if entity == nil || entity.PrimaryKey == nil {
		return signer
	}
	signer.KeyID = entity.PrimaryKey.KeyIdString()
	signer.Fingerprint = fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
	for name := range entity.Identities {
		if signer.Identity == "" || name < signer.Identity {
			signer.Identity = name
		}
	}
	return signer
}
