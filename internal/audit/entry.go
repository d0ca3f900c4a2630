package audit

// Entry is one flow decision in the audit log. Record assigns Seq and
// Chain; callers fill the rest. A "grant" entry carries the issued grant
// id, a "deny" entry carries the denial reason.
type Entry struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"timestamp"`
	Node      string `json:"node"`
	Surface   string `json:"surface"`
	Operation string `json:"operation"`
	Source    string `json:"source,omitempty"`
	Target    string `json:"target,omitempty"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	GrantID   uint64 `json:"grant_id,omitempty"`
	Chain     string `json:"chain"`
}
