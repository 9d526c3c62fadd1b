// Package gateway defines the ledger collaborators the curation pipeline
// depends on: a sequential comment feed, post resolution, and the two
// state-changing reactions (vote and reply).
//
// Failures are reported through a closed set of sentinel errors. Callers
// match them with Classify, which folds every unrecognized error into
// KindOther.
package gateway

import (
	"context"
	"errors"

	"github.com/ava-labs/hive-curator/pkg/types"
)

var (
	// ErrNotFound means the requested post does not exist (deleted or never created).
	ErrNotFound = errors.New("content does not exist")
	// ErrArchivedPost means the post is past its payout window and can no longer be voted on.
	ErrArchivedPost = errors.New("post is archived")
	// ErrVoteLimitExceeded means the voter changed its vote on the post more times than allowed.
	ErrVoteLimitExceeded = errors.New("vote changed too many times")
)

// Kind is the classification of a gateway failure.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindArchivedPost
	KindVoteLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindArchivedPost:
		return "archived_post"
	case KindVoteLimitExceeded:
		return "vote_limit_exceeded"
	default:
		return "other"
	}
}

// Classify maps err onto the closed set of gateway failure kinds.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrArchivedPost):
		return KindArchivedPost
	case errors.Is(err, ErrVoteLimitExceeded):
		return KindVoteLimitExceeded
	default:
		return KindOther
	}
}

// Handler consumes one operation of the feed. Returning an error stops the feed.
type Handler func(ctx context.Context, op types.Operation) error

// Feed is a sequential stream of comment operations.
type Feed interface {
	// Stream is a BLOCKING call. It delivers comment operations in ledger order
	// starting at block height start, or at the feed's default starting point
	// when start is 0. The next operation is only read after handle returns.
	// It returns when ctx is done, on a feed failure, or with the first error
	// returned by handle.
	Stream(ctx context.Context, start uint64, handle Handler) error
}

// Gateway resolves posts and applies reactions to them.
type Gateway interface {
	// GetPost fetches the post addressed by id. Returns ErrNotFound if it does not exist.
	GetPost(ctx context.Context, id types.Identifier) (*types.Post, error)

	// Vote applies a vote of weight percent in [-100, 100] on post as voter.
	Vote(ctx context.Context, post *types.Post, voter string, weight int) error

	// Reply publishes body as a reply to post, authored by author.
	Reply(ctx context.Context, post *types.Post, author, body string) error
}
