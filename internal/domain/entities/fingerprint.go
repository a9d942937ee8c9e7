package entities

// FingerprintSet holds the content digests of an artifact.
// Every field is a pure function of the artifact bytes. CRC32 is lowercase hex
// without padding and SSDeep is computed for inputs of any size.
type FingerprintSet struct {
	SHA256 string `json:"sha256" yaml:"sha256" msgpack:"sha256"`
	CRC32  string `json:"crc32" yaml:"crc32" msgpack:"crc32"`
	SSDeep string `json:"ssdeep" yaml:"ssdeep" msgpack:"ssdeep"`
	MD5    string `json:"md5" yaml:"md5" msgpack:"md5"`
	SHA1   string `json:"sha1" yaml:"sha1" msgpack:"sha1"`
}

// StringSet holds printable string literals in byte-offset order
type StringSet struct {
	ASCII   []string `json:"ascii" yaml:"ascii" msgpack:"ascii"`
	Unicode []string `json:"unicode" yaml:"unicode" msgpack:"unicode"`
}

// SimilarityResult compares the fuzzy hashes of two artifacts.
// Score is the ssdeep match score 0-100, or -1 when either hash is missing.
// Identical reports equal SHA-256 digests.
type SimilarityResult struct {
	Left      string `json:"left" yaml:"left" msgpack:"left"`
	Right     string `json:"right" yaml:"right" msgpack:"right"`
	LeftHash  string `json:"left_ssdeep" yaml:"left_ssdeep" msgpack:"left_ssdeep"`
	RightHash string `json:"right_ssdeep" yaml:"right_ssdeep" msgpack:"right_ssdeep"`
	Score     int    `json:"score" yaml:"score" msgpack:"score"`
	Identical bool   `json:"identical" yaml:"identical" msgpack:"identical"`
}
