package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain-adapters/gateways"
)

func signaturesCommand() *cli.Command {
	return &cli.Command{
		Name:  "signatures",
		Usage: "Inspect the packer signature database",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List signatures in priority order",
				Flags:  signatureFlags(),
				Action: signaturesListAction,
			},
			{
				Name:   "verify",
				Usage:  "Check the database checksum pin and detached signature",
				Flags:  signatureFlags(),
				Action: signaturesVerifyAction,
			},
		},
	}
}

func signaturesListAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close(nil)

	db, err := s.loadSignatures(c.Context)
	if err != nil {
		return err
	}

	if err := s.renderer.Signatures(db); err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}
	return nil
}

// verifyResponse is the rendered outcome of signatures verify
type verifyResponse struct {
	Path         string `json:"path" yaml:"path" msgpack:"path"`
	SHA256       string `json:"sha256" yaml:"sha256" msgpack:"sha256"`
	PinChecked   bool   `json:"pin_checked" yaml:"pin_checked" msgpack:"pin_checked"`
	SignatureKey string `json:"signature_key,omitempty" yaml:"signature_key,omitempty" msgpack:"signature_key,omitempty"`
	Signer       string `json:"signer,omitempty" yaml:"signer,omitempty" msgpack:"signer,omitempty"`
	Signatures   int    `json:"signatures" yaml:"signatures" msgpack:"signatures"`
}

func signaturesVerifyAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close(nil)

	repo := gateways.NewSignatureRepository(s.config.Signatures, s.logger)
	auth, err := repo.Authenticate(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("signature database verification failed: %v", err), exitConfig)
	}
	db, err := repo.LoadSignatures(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("signature database error: %v", err), exitConfig)
	}

	resp := verifyResponse{
		Path:       s.config.Signatures.Path,
		SHA256:     auth.SHA256,
		PinChecked: auth.PinChecked,
		Signatures: db.Len(),
	}
	if auth.Signer != nil {
		resp.SignatureKey = auth.Signer.KeyID
		resp.Signer = auth.Signer.Identity
	}

	if err := s.renderer.Value(resp); err != nil {
		return cli.Exit(fmt.Sprintf("failed to render output: %v", err), exitUsage)
	}
	return nil
}
