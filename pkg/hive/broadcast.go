package hive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/types"
)

// DefaultAppName is written into the json_metadata of every reply.
const DefaultAppName = "hive-curator/1.0"

var errNoSigner = errors.New("no posting key configured")

// Broadcaster is the gateway.Gateway of a Hive API node: it resolves posts
// and signs and broadcasts vote and comment operations.
type Broadcaster struct {
	client  *Client
	signer  *Signer
	log     *zap.SugaredLogger
	clock   clockwork.Clock
	appName string
}

var _ gateway.Gateway = (*Broadcaster)(nil)

// BroadcasterOption configures the Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithClock sets the clock reply permlinks are derived from.
func WithClock(c clockwork.Clock) BroadcasterOption {
	return func(b *Broadcaster) {
		b.clock = c
	}
}

// WithAppName overrides DefaultAppName.
func WithAppName(name string) BroadcasterOption {
	return func(b *Broadcaster) {
		b.appName = name
	}
}

// NewBroadcaster returns a gateway backed by client. signer may be nil when
// the gateway is only used to resolve posts.
func NewBroadcaster(log *zap.SugaredLogger, client *Client, signer *Signer, opts ...BroadcasterOption) (*Broadcaster, error) {
	if log == nil {
		return nil, errors.New("invalid logger: must not be nil")
	}
	if client == nil {
		return nil, errors.New("invalid client: must not be nil")
	}
	b := &Broadcaster{
		client:  client,
		signer:  signer,
		log:     log,
		clock:   clockwork.NewRealClock(),
		appName: DefaultAppName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Broadcaster) GetPost(ctx context.Context, id types.Identifier) (*types.Post, error) {
	return b.client.GetContent(ctx, id)
}

// Vote votes weight percent on post. Archived posts are refused without a
// round trip to the node.
func (b *Broadcaster) Vote(ctx context.Context, post *types.Post, voter string, weight int) error {
	id := post.Identifier()
	if post.Archived() {
		return fmt.Errorf("vote on %s: %w", id, gateway.ErrArchivedPost)
	}
	if weight < -100 || weight > 100 {
		return fmt.Errorf("vote on %s: weight %d out of range", id, weight)
	}
	return b.broadcast(ctx, VoteOperation{
		Voter:    voter,
		Author:   post.Author,
		Permlink: post.Permlink,
		Weight:   int16(weight * 100),
	})
}

func (b *Broadcaster) Reply(ctx context.Context, post *types.Post, author, body string) error {
	meta, err := json.Marshal(map[string]string{"app": b.appName})
	if err != nil {
		return fmt.Errorf("encode json metadata: %w", err)
	}
	return b.broadcast(ctx, CommentOperation{
		ParentAuthor:   post.Author,
		ParentPermlink: post.Permlink,
		Author:         author,
		Permlink:       ReplyPermlink(post.Author, b.clock),
		Body:           body,
		JSONMetadata:   string(meta),
	})
}

func (b *Broadcaster) broadcast(ctx context.Context, op Operation) error {
	if b.signer == nil {
		return fmt.Errorf("broadcast %s: %w", op.Name(), errNoSigner)
	}
	props, err := b.client.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", op.Name(), err)
	}
	tx, err := NewTransaction(props, op)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", op.Name(), err)
	}
	if err := b.signer.Sign(tx); err != nil {
		return fmt.Errorf("broadcast %s: sign: %w", op.Name(), err)
	}
	if err := b.client.BroadcastTransaction(ctx, tx); err != nil {
		return fmt.Errorf("broadcast %s: %w", op.Name(), err)
	}
	b.log.Debugw("transaction broadcast",
		"operation", op.Name(),
		"refBlockNum", tx.RefBlockNum,
		"expiration", tx.Expiration,
	)
	return nil
}

// ReplyPermlink derives a reply permlink from the parent author and the
// current UTC time, e.g. re-alice-20240102t030405123z.
func ReplyPermlink(parentAuthor string, clock clockwork.Clock) string {
	now := clock.Now().UTC()
	stamp := fmt.Sprintf("%s%03dz", now.Format("20060102t150405"), now.Nanosecond()/1e6)
	return strings.ToLower("re-" + parentAuthor + "-" + stamp)
}
