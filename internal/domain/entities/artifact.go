// Package entities defines core domain models and data structures.
package entities

// RawArtifact is the byte buffer of a single file under analysis.
// The buffer is shared read-only by every analysis stage and is never mutated.
type RawArtifact struct {
	Name string
	Path string // optional, required only by path-based collaborators (unpack probe, strings tool)
	data []byte
}

// NewRawArtifact wraps data as an artifact. The caller hands over ownership of data.
func NewRawArtifact(name, path string, data []byte) *RawArtifact {
	return &RawArtifact{
		Name: name,
		Path: path,
		data: data,
	}
}

// Bytes returns the artifact content. Callers must treat it as read-only.
func (a *RawArtifact) Bytes() []byte {
	return a.data
}

// Size returns the content length in bytes
func (a *RawArtifact) Size() int {
	return len(a.data)
}

// FileIdentity describes what the artifact is
type FileIdentity struct {
	Name      string `json:"name" yaml:"name" msgpack:"name"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes" msgpack:"size_bytes"`
	TypeLabel string `json:"type_label" yaml:"type_label" msgpack:"type_label"`
}
