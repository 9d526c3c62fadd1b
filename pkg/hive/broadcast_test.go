package hive

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/types"
)

var livePost = &types.Post{
	Author:      "alice",
	Permlink:    "p1",
	CashoutTime: time.Date(2024, 1, 9, 3, 4, 5, 0, time.UTC),
}

func newTestBroadcaster(t *testing.T, node *fakeNode, opts ...BroadcasterOption) *Broadcaster {
	t.Helper()
	_, c := node.start()
	s, err := NewSigner(testWIF, "")
	require.NoError(t, err)
	b, err := NewBroadcaster(zap.NewNop().Sugar(), c, s, opts...)
	require.NoError(t, err)
	return b
}

func TestNewBroadcaster_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewBroadcaster(nil, &Client{}, nil)
	require.Error(t, err)
	_, err = NewBroadcaster(zap.NewNop().Sugar(), nil, nil)
	require.Error(t, err)
}

func TestBroadcaster_Vote(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	b := newTestBroadcaster(t, node)

	require.NoError(t, b.Vote(t.Context(), livePost, "curator", 75))

	assert.Equal(t, []string{methodGetDynamicGlobalProperties, methodBroadcastTransaction}, node.Methods())
	txs := node.Broadcasts()
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.InDelta(t, 100, tx["ref_block_num"], 0)
	assert.InDelta(t, 0x12345678, tx["ref_block_prefix"], 0)
	assert.Equal(t, []any{[]any{"vote", map[string]any{
		"voter":    "curator",
		"author":   "alice",
		"permlink": "p1",
		"weight":   float64(7500),
	}}}, tx["operations"])
	assert.Len(t, tx["signatures"], 1)
}

func TestBroadcaster_VoteArchived(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	b := newTestBroadcaster(t, node)

	archived := &types.Post{Author: "alice", Permlink: "old", CashoutTime: types.ArchivedCashoutTime}
	err := b.Vote(t.Context(), archived, "curator", 50)
	require.ErrorIs(t, err, gateway.ErrArchivedPost)
	assert.Empty(t, node.Methods())
}

func TestBroadcaster_VoteUnknownCashout(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	b := newTestBroadcaster(t, node)

	post := &types.Post{Author: "alice", Permlink: "p1"}
	require.NoError(t, b.Vote(t.Context(), post, "curator", 50))
	assert.Equal(t, []string{methodGetDynamicGlobalProperties, methodBroadcastTransaction}, node.Methods())
}

func TestBroadcaster_VoteOutOfRange(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	b := newTestBroadcaster(t, node)

	require.Error(t, b.Vote(t.Context(), livePost, "curator", 101))
	assert.Empty(t, node.Methods())
}

func TestBroadcaster_VoteLimit(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	node.broadcastErr = &nodeError{
		Code:    -32000,
		Message: "Assert Exception:itr->num_changes < HIVE_MAX_VOTE_CHANGES: Voter has used the maximum number of vote changes on this comment.",
	}
	b := newTestBroadcaster(t, node)

	err := b.Vote(t.Context(), livePost, "curator", 75)
	require.ErrorIs(t, err, gateway.ErrVoteLimitExceeded)
	assert.Equal(t, gateway.KindVoteLimitExceeded, gateway.Classify(err))
}

func TestBroadcaster_Reply(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 123_000_000, time.UTC))
	b := newTestBroadcaster(t, node, WithClock(clock), WithAppName("curator-test"))

	require.NoError(t, b.Reply(t.Context(), livePost, "curator", "thanks @alice"))

	txs := node.Broadcasts()
	require.Len(t, txs, 1)
	assert.Equal(t, []any{[]any{"comment", map[string]any{
		"parent_author":   "alice",
		"parent_permlink": "p1",
		"author":          "curator",
		"permlink":        "re-alice-20240102t030405123z",
		"title":           "",
		"body":            "thanks @alice",
		"json_metadata":   `{"app":"curator-test"}`,
	}}}, txs[0]["operations"])
}

func TestBroadcaster_NoSigner(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	_, c := node.start()
	b, err := NewBroadcaster(zap.NewNop().Sugar(), c, nil)
	require.NoError(t, err)

	require.ErrorIs(t, b.Reply(t.Context(), livePost, "curator", "body"), errNoSigner)
	assert.Empty(t, node.Methods())
}

func TestBroadcaster_GetPost(t *testing.T) {
	t.Parallel()
	node := newFakeNode(t)
	b := newTestBroadcaster(t, node)

	_, err := b.GetPost(t.Context(), types.Identifier{Author: "alice", Permlink: "missing"})
	require.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestReplyPermlink(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(time.Date(2023, 11, 14, 22, 13, 20, 5_000_000, time.FixedZone("X", 3600)))
	assert.Equal(t, "re-bob.smith-20231114t211320005z", ReplyPermlink("Bob.Smith", clock))
}
