package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "audit.jsonl")
}

func grantEntry(id uint64) Entry {
	return Entry{
		Node: "10.0.0.1", Surface: "p2m", Operation: "io_request",
		Source: "file:/tmp/x", Target: "process:1@0:",
		Decision: "grant", GrantID: id,
	}
}

func denyEntry(reason string) Entry {
	return Entry{
		Node: "10.0.0.1", Surface: "p2m", Operation: "io_request",
		Source: "file:/tmp/x", Target: "process:1@0:",
		Decision: "deny", Reason: reason,
	}
}

func TestRecordAndVerify(t *testing.T) {
	path := testLogPath(t)
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, e := range []Entry{grantEntry(1), denyEntry("deleted"), grantEntry(2)} {
		if err := l.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("log invalid: %+v", result)
	}
	if result.Entries != 3 {
		t.Errorf("entries = %d, want 3", result.Entries)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := testLogPath(t)
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Record(grantEntry(1))
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	l2.Record(denyEntry("consent_timeout"))
	l2.Close()

	result := Verify(path)
	if !result.Valid || result.Entries != 2 {
		t.Fatalf("chain after reopen: %+v", result)
	}
}

func TestVerifyDetectsEditedEntry(t *testing.T) {
	path := testLogPath(t)
	l, _ := Open(path)
	l.Record(denyEntry("deleted"))
	l.Record(grantEntry(2))
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Rewrite the first entry's reason in place, same byte length.
	tampered := strings.Replace(string(data), `"reason":"deleted"`, `"reason":"consent"`, 1)
	if tampered == string(data) {
		t.Fatalf("test did not modify the log")
	}
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatalf("edited log verified clean")
	}
	// The digest binds each entry's own content, so the edit is caught at
	// the edited entry itself.
	if result.Seq != 1 {
		t.Errorf("defect reported at seq %d, want 1", result.Seq)
	}
}

func TestVerifyDetectsDroppedEntry(t *testing.T) {
	path := testLogPath(t)
	l, _ := Open(path)
	l.Record(grantEntry(1))
	l.Record(denyEntry("integrity"))
	l.Record(grantEntry(3))
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.SplitAfter(string(data), "\n")
	// Drop the middle entry; seq 3 then follows seq 1.
	if err := os.WriteFile(path, []byte(lines[0]+lines[2]), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Errorf("log with a dropped entry verified clean")
	}
	if result.Seq != 3 {
		t.Errorf("defect reported at seq %d, want 3", result.Seq)
	}
}

func TestVerifyFlagsMalformedDecisions(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
	}{
		{"grant without id", Entry{Node: "n", Surface: "p2m", Operation: "io_request", Decision: "grant"}},
		{"deny without reason", Entry{Node: "n", Surface: "p2m", Operation: "io_request", Decision: "deny"}},
		{"unknown decision", Entry{Node: "n", Surface: "p2m", Operation: "io_request", Decision: "maybe"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := testLogPath(t)
			l, _ := Open(path)
			l.Record(c.entry)
			l.Close()

			result := Verify(path)
			if result.Valid {
				t.Errorf("malformed decision verified clean")
			}
			if result.Seq != 1 {
				t.Errorf("defect reported at seq %d, want 1", result.Seq)
			}
		})
	}
}

func TestOpenRefusesCorruptLog(t *testing.T) {
	path := testLogPath(t)
	if err := os.WriteFile(path, []byte("not json\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("corrupt log opened for appending")
	}
}
