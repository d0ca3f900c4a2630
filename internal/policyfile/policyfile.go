// Package policyfile applies preset policy labels from a YAML file, so a
// node comes up with its confidentiality, integrity, and consent flags in
// place before any process enrolls. The file is hot-reloaded by the
// server's watcher.
package policyfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trace2e-io/trace2e/internal/naming"
)

// StreamRef names a stream resource in the file.
type StreamRef struct {
	Local string `yaml:"local"`
	Peer  string `yaml:"peer"`
}

// Entry assigns labels to one resource. Exactly one of File or Stream
// names the resource.
type Entry struct {
	File   string     `yaml:"file,omitempty"`
	Stream *StreamRef `yaml:"stream,omitempty"`

	Confidential bool `yaml:"confidential,omitempty"`
	Integrity    bool `yaml:"integrity,omitempty"`
	Consent      bool `yaml:"consent,omitempty"`
}

// Resource resolves the entry to its resource identity.
func (e Entry) Resource() (naming.Resource, error) {
	switch {
	case e.File != "" && e.Stream == nil:
		return naming.NewFile(e.File), nil
	case e.File == "" && e.Stream != nil:
		if !naming.ValidSocket(e.Stream.Local) || !naming.ValidSocket(e.Stream.Peer) {
			return naming.Resource{}, fmt.Errorf("policyfile: invalid stream sockets %q, %q", e.Stream.Local, e.Stream.Peer)
		}
		return naming.NewStream(e.Stream.Local, e.Stream.Peer), nil
	default:
		return naming.Resource{}, fmt.Errorf("policyfile: entry must name exactly one of file or stream")
	}
}

// File is the parsed policy preset.
type File struct {
	Policies []Entry `yaml:"policies"`
}

// Load parses a policy preset file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("policyfile: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("policyfile: parse %s: %w", path, err)
	}
	for i, e := range f.Policies {
		if _, err := e.Resource(); err != nil {
			return File{}, fmt.Errorf("policyfile: entry %d: %w", i, err)
		}
	}
	return f, nil
}

// Applier is the slice of the policy surface the presets need.
type Applier interface {
	SetConfidentiality(r naming.Resource, enabled bool) bool
	SetIntegrity(r naming.Resource, enabled bool) bool
	EnforceConsent(r naming.Resource) bool
}

// Apply pushes every entry's labels into the node. Label updates refused
// because a resource is already deleted are skipped silently; deletion
// wins over presets.
func (f File) Apply(a Applier) {
	for _, e := range f.Policies {
		r, err := e.Resource()
		if err != nil {
			continue
		}
		if e.Confidential {
			a.SetConfidentiality(r, true)
		}
		if e.Integrity {
			a.SetIntegrity(r, true)
		}
		if e.Consent {
			a.EnforceConsent(r)
		}
	}
}
