package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// VerifyResult reports the outcome of a log verification. On failure,
// Problem describes the first defect and Seq names the offending entry.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Problem string `json:"problem,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
}

// Verify replays a decision log and checks three things per entry: the
// sequence numbers run 1..n without gaps (truncation and reordering), the
// chain digest matches a recomputation over the entry's own content
// (in-place edits), and the decision is well-formed for this middleware —
// a grant must carry a usable grant id, a denial must carry its reason.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Problem: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	var chain string
	count := 0
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var e Entry
		if err := dec.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			return VerifyResult{Entries: count, Problem: fmt.Sprintf("entry does not decode: %v", err)}
		}
		count++

		if e.Seq != uint64(count) {
			return VerifyResult{
				Entries: count,
				Seq:     e.Seq,
				Problem: fmt.Sprintf("sequence broken: entry %d carries seq %d", count, e.Seq),
			}
		}
		if want := chainDigest(chain, e); want != e.Chain {
			return VerifyResult{
				Entries: count,
				Seq:     e.Seq,
				Problem: "chain digest mismatch: entry was altered or the log was forked",
			}
		}
		if p := checkDecision(e); p != "" {
			return VerifyResult{Entries: count, Seq: e.Seq, Problem: p}
		}
		chain = e.Chain
	}
	return VerifyResult{Valid: true, Entries: count}
}

// checkDecision enforces the decision shape the middleware actually
// produces. The denial sentinel is not a grant id and must never appear
// in a grant entry.
func checkDecision(e Entry) string {
	switch e.Decision {
	case "grant":
		if e.GrantID == 0 || e.GrantID == math.MaxUint64 {
			return fmt.Sprintf("grant entry without a usable grant id (%d)", e.GrantID)
		}
	case "deny":
		if e.Reason == "" {
			return "deny entry without a reason"
		}
	default:
		return fmt.Sprintf("unknown decision %q", e.Decision)
	}
	return ""
}
