package gateways

import (
	"crypto/md5"  //nolint:gosec // G501: MD5 is reported as an identifier, not used for integrity
	"crypto/sha1" //nolint:gosec // G505: SHA-1 is reported as an identifier, not used for integrity
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strconv"

	"github.com/glaslos/ssdeep"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// emptyFuzzyHash is the ssdeep digest of zero bytes
const emptyFuzzyHash = "3::"

func init() {
	// ssdeep refuses inputs under 4096 bytes unless forced
	ssdeep.Force = true
}

// fingerprintEngine computes content digests and the fuzzy hash of a buffer
type fingerprintEngine struct{}

// NewFingerprintEngine creates a new fingerprint engine
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewFingerprintEngine() *fingerprintEngine {
	return &fingerprintEngine{}
}

// Fingerprint hashes data in a single pass over the cryptographic digests.
// The fuzzy hash is computed for inputs of any size.
func (e *fingerprintEngine) Fingerprint(data []byte) entities.FingerprintSet {
	sha256h := sha256.New()
	md5h := md5.New()   //nolint:gosec // G401: identifier only
	sha1h := sha1.New() //nolint:gosec // G401: identifier only
	crc := crc32.NewIEEE()

	w := io.MultiWriter(sha256h, md5h, sha1h, crc)
	//nolint:errcheck // hash writers never fail
	w.Write(data)

	return entities.FingerprintSet{
		SHA256: sum(sha256h),
		CRC32:  strconv.FormatUint(uint64(crc.Sum32()), 16),
		SSDeep: fuzzyHash(data),
		MD5:    sum(md5h),
		SHA1:   sum(sha1h),
	}
}

func sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

func fuzzyHash(data []byte) string {
	if len(data) == 0 {
		return emptyFuzzyHash
	}
	h, err := ssdeep.FuzzyBytes(data)
	if err != nil {
		return ""
	}
	return h
}

// FuzzyDistance returns the ssdeep similarity score (0-100) of two fuzzy hashes
func (e *fingerprintEngine) FuzzyDistance(a, b string) (int, error) {
	score, err := ssdeep.Distance(a, b)
	if err != nil {
		return 0, fmt.Errorf("failed to compare fuzzy hashes: %w", err)
	}
	return score, nil
}
