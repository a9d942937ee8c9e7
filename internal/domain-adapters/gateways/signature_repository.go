package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	"github.com/ochairo/specimen/internal/external-adapters/gpg"
	"github.com/ochairo/specimen/internal/external-adapters/peid"
	yamladapter "github.com/ochairo/specimen/internal/external-adapters/yaml"
)

// Signature database formats
const (
	SignatureFormatPEiD = "peid"
	SignatureFormatYAML = "yaml"
)

// SignatureAuthentication reports which integrity checks a database file passed
type SignatureAuthentication struct {
	SHA256     string
	PinChecked bool
	Signer     *gpg.Signer // nil when no detached signature is configured
}

// signatureRepository implements repositories.SignatureRepository over a file on disk
type signatureRepository struct {
	config       entities.SignatureConfig
	fingerprints *fingerprintEngine
	gpgVerifier  *gpgVerifier
	peidParser   *peid.Parser
	yamlParser   *yamladapter.SignatureParser
	logger       interfaces.Logger
}

// NewSignatureRepository creates a file-backed signature repository
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSignatureRepository(config entities.SignatureConfig, logger interfaces.Logger) *signatureRepository {
	return &signatureRepository{
		config:       config,
		fingerprints: NewFingerprintEngine(),
		gpgVerifier:  NewGPGVerifier(),
		peidParser:   peid.NewParser(),
		yamlParser:   yamladapter.NewSignatureParser(),
		logger:       logger,
	}
}

// LoadSignatures reads the database, checks its pin and signature when configured, and parses it.
// An empty path yields an empty database.
func (r *signatureRepository) LoadSignatures(ctx context.Context) (*entities.SignatureDatabase, error) {
	if r.config.Path == "" {
		r.logger.Warn("No signature database configured, PE packer detection will not match")
		return entities.NewSignatureDatabase("", nil), nil
	}

	data, err := r.read()
	if err != nil {
		return nil, err
	}

	if _, err := r.authenticate(ctx, data); err != nil {
		return nil, err
	}

	sigs, err := r.parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signature database %s: %w", r.config.Path, err)
	}

	db := entities.NewSignatureDatabase(r.config.Path, sigs)
	r.logger.Info("Signature database loaded",
		interfaces.F("path", r.config.Path),
		interfaces.F("signatures", db.Len()),
	)
	return db, nil
}

// Authenticate runs only the integrity checks, without parsing
func (r *signatureRepository) Authenticate(ctx context.Context) (*SignatureAuthentication, error) {
	if r.config.Path == "" {
		return nil, fmt.Errorf("no signature database path configured")
	}
	data, err := r.read()
	if err != nil {
		return nil, err
	}
	return r.authenticate(ctx, data)
}

func (r *signatureRepository) read() ([]byte, error) {
	//nolint:gosec // G304: path is the configured signature database
	data, err := os.ReadFile(r.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature database: %w", err)
	}
	return data, nil
}

func (r *signatureRepository) authenticate(_ context.Context, data []byte) (*SignatureAuthentication, error) {
	auth := &SignatureAuthentication{
		SHA256: r.fingerprints.Fingerprint(data).SHA256,
	}

	if r.config.SHA256 != "" {
		if !strings.EqualFold(auth.SHA256, strings.TrimSpace(r.config.SHA256)) {
			return nil, fmt.Errorf("signature database checksum mismatch: expected %s, got %s", r.config.SHA256, auth.SHA256)
		}
		auth.PinChecked = true
	}

	if r.config.Signature != "" {
		if r.config.Keyring == "" {
			return nil, fmt.Errorf("signature database signature configured without a keyring")
		}
		signer, err := r.gpgVerifier.VerifyDetached(data, r.config.Signature, r.config.Keyring)
		if err != nil {
			return nil, err
		}
		auth.Signer = signer
		r.logger.Debug("Signature database signature verified",
			interfaces.F("key_id", signer.KeyID),
			interfaces.F("identity", signer.Identity),
		)
	}

	return auth, nil
}

func (r *signatureRepository) parse(data []byte) ([]entities.PackerSignature, error) {
	switch format := r.format(); format {
	case SignatureFormatPEiD:
		return r.peidParser.Parse(data)
	case SignatureFormatYAML:
		return r.yamlParser.Parse(data)
	default:
		return nil, fmt.Errorf("unsupported signature database format %q", format)
	}
}

// format resolves the configured format, inferring it from the file extension when unset
func (r *signatureRepository) format() string {
	if r.config.Format != "" {
		return strings.ToLower(r.config.Format)
	}
	switch strings.ToLower(filepath.Ext(r.config.Path)) {
	case ".yaml", ".yml":
		return SignatureFormatYAML
	default:
		return SignatureFormatPEiD
	}
}
