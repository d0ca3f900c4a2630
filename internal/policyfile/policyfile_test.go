package policyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trace2e-io/trace2e/internal/naming"
)

type fakeApplier struct {
	confidential []naming.Resource
	integrity    []naming.Resource
	consent      []naming.Resource
}

func (f *fakeApplier) SetConfidentiality(r naming.Resource, enabled bool) bool {
	f.confidential = append(f.confidential, r)
	return true
}

func (f *fakeApplier) SetIntegrity(r naming.Resource, enabled bool) bool {
	f.integrity = append(f.integrity, r)
	return true
}

func (f *fakeApplier) EnforceConsent(r naming.Resource) bool {
	f.consent = append(f.consent, r)
	return true
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeFile(t, `
policies:
  - file: /data/patients.csv
    confidential: true
    consent: true
  - file: /data/results.csv
    integrity: true
  - stream:
      local: "10.0.0.1:1337"
      peer: "10.0.0.2:1338"
    confidential: true
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Policies) != 3 {
		t.Fatalf("entries = %d", len(f.Policies))
	}

	a := &fakeApplier{}
	f.Apply(a)

	if len(a.confidential) != 2 {
		t.Errorf("confidential applications = %v", a.confidential)
	}
	if len(a.integrity) != 1 || a.integrity[0] != naming.NewFile("/data/results.csv") {
		t.Errorf("integrity applications = %v", a.integrity)
	}
	if len(a.consent) != 1 || a.consent[0] != naming.NewFile("/data/patients.csv") {
		t.Errorf("consent applications = %v", a.consent)
	}
}

func TestLoadRejectsAmbiguousEntry(t *testing.T) {
	path := writeFile(t, `
policies:
  - file: /data/x
    stream:
      local: "10.0.0.1:1"
      peer: "10.0.0.2:2"
`)
	if _, err := Load(path); err == nil {
		t.Errorf("entry naming two resources accepted")
	}
}

func TestLoadRejectsBadStream(t *testing.T) {
	path := writeFile(t, `
policies:
  - stream:
      local: "nonsense"
      peer: "10.0.0.2:2"
`)
	if _, err := Load(path); err == nil {
		t.Errorf("invalid socket accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/policies.yaml"); err == nil {
		t.Errorf("missing file accepted")
	}
}
