package domain

// BanThreshold is the number of distinct reporters an identity may collect
// without being banned. The sixth distinct reporter bans it.
const BanThreshold = 5

// Ledger tracks, per reported identity, the distinct identities that
// reported it. Ban status is derived from it on demand and never stored.
type Ledger struct {
	reports map[string]set
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{reports: map[string]set{}}
}

// Report records that reporter reported target. It returns false when
// reporter has already reported target.
func (l *Ledger) Report(reporter, target string) bool {
	rs, ok := l.reports[target]
	if !ok {
		rs = set{}
		l.reports[target] = rs
	}
	if rs.has(reporter) {
		return false
	}
	rs[reporter] = struct{}{}
	return true
}

// Reporters returns how many distinct identities reported target.
func (l *Ledger) Reporters(target string) int { return len(l.reports[target]) }

// ReportedBy returns the sorted identities that reported target.
func (l *Ledger) ReportedBy(target string) []string { return sortedKeys(l.reports[target]) }

// IsBanned reports whether id has more than BanThreshold distinct reporters.
func (l *Ledger) IsBanned(id string) bool { return l.Reporters(id) > BanThreshold }

// Banned returns how many identities are currently banned.
func (l *Ledger) Banned() int {
	n := 0
	for id := range l.reports {
		if l.IsBanned(id) {
			n++
		}
	}
	return n
}
