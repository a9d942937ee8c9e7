package entities

import "time"

// AnalysisReport aggregates everything learned about one artifact.
// It is assembled once by the dispatcher and not modified afterwards.
type AnalysisReport struct {
	Identity      FileIdentity   `json:"identity" yaml:"identity" msgpack:"identity"`
	Fingerprints  FingerprintSet `json:"fingerprints" yaml:"fingerprints" msgpack:"fingerprints"`
	Strings       StringSet      `json:"strings" yaml:"strings" msgpack:"strings"`
	Format        FormatMetadata `json:"format" yaml:"format" msgpack:"format"`
	PackerVerdict *PackerVerdict `json:"packer_verdict" yaml:"packer_verdict" msgpack:"packer_verdict"`
	AnalyzedAt    time.Time      `json:"analyzed_at" yaml:"analyzed_at" msgpack:"analyzed_at"`
	Duration      time.Duration  `json:"duration_ns" yaml:"duration_ns" msgpack:"duration_ns"`
}
