package types

import "time"

// ArchivedCashoutTime is the cashout time the ledger reports for posts whose
// payout window has closed.
var ArchivedCashoutTime = time.Date(1969, time.December, 31, 23, 59, 59, 0, time.UTC)

// Post is a resolved reaction target.
type Post struct {
	ID           int64
	Author       string
	Permlink     string
	ParentAuthor string
	Category     string
	Title        string
	CashoutTime  time.Time
}

// Identifier returns the post's identifier.
func (p *Post) Identifier() Identifier {
	return Identifier{Author: p.Author, Permlink: p.Permlink}
}

// Archived reports whether the payout window of the post has closed, in which
// case votes are rejected. An unset cashout time is not treated as archived;
// the node decides.
func (p *Post) Archived() bool {
	if p.CashoutTime.IsZero() {
		return false
	}
	return !p.CashoutTime.After(ArchivedCashoutTime)
}
