package types

import "time"

// Operation is a single comment operation read from the ledger feed.
// ParentAuthor is empty when the comment is a root post.
type Operation struct {
	Author         string
	Permlink       string
	ParentAuthor   string
	ParentPermlink string
	Body           string
	BlockNumber    uint64
	TrxID          string
	Timestamp      time.Time
}

// IsReply reports whether the operation replies to an existing post.
func (o Operation) IsReply() bool {
	return o.ParentAuthor != ""
}

// Identifier addresses a post by author and permlink.
type Identifier struct {
	Author   string
	Permlink string
}

// String renders the identifier as "author/permlink".
func (i Identifier) String() string {
	return i.Author + "/" + i.Permlink
}

// Command is a parsed curation request. It only lives for one dispatch.
type Command struct {
	Target         Identifier
	SourceAuthor   string
	SourcePermlink string
	BlockNumber    uint64

	// VoteWeight is a percentage in [-100, 100]. It is only meaningful when
	// HasVoteWeight is set, which never happens with voting disabled.
	VoteWeight    int
	HasVoteWeight bool
}
