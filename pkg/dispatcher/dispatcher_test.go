package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/render"
	"github.com/ava-labs/hive-curator/pkg/types"
)

type mockGateway struct {
	mock.Mock

	mu    sync.Mutex
	calls []string
}

func (m *mockGateway) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockGateway) GetPost(ctx context.Context, id types.Identifier) (*types.Post, error) {
	m.record("get")
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*types.Post)
	return post, args.Error(1)
}

func (m *mockGateway) Vote(ctx context.Context, post *types.Post, voter string, weight int) error {
	m.record("vote")
	args := m.Called(ctx, post, voter, weight)
	return args.Error(0)
}

func (m *mockGateway) Reply(ctx context.Context, post *types.Post, author, body string) error {
	m.record("reply")
	args := m.Called(ctx, post, author, body)
	return args.Error(0)
}

var _ gateway.Gateway = (*mockGateway)(nil)

type staticRenderer struct {
	body string
	err  error
	got  []render.Data
}

func (r *staticRenderer) Render(d render.Data) (string, error) {
	r.got = append(r.got, d)
	return r.body, r.err
}

var (
	target  = types.Identifier{Author: "alice", Permlink: "p1"}
	post    = &types.Post{Author: "alice", Permlink: "p1"}
	command = types.Command{
		Target:        target,
		SourceAuthor:  "caller123acct",
		VoteWeight:    75,
		HasVoteWeight: true,
	}
)

func newDispatcher(t *testing.T, gw gateway.Gateway, r render.Renderer, cfg Config) *Dispatcher {
	t.Helper()
	d, err := New(zap.NewNop().Sugar(), gw, r, cfg, nil)
	require.NoError(t, err)
	return d
}

func enabledConfig() Config {
	return Config{Account: "curator", EnableVotes: true, EnableComments: true}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	log := zap.NewNop().Sugar()
	gw := &mockGateway{}
	r := &staticRenderer{}

	tests := []struct {
		name     string
		log      *zap.SugaredLogger
		gw       gateway.Gateway
		renderer render.Renderer
		cfg      Config
		wantErr  bool
	}{
		{name: "ok", log: log, gw: gw, renderer: r, cfg: enabledConfig()},
		{name: "nil logger", gw: gw, renderer: r, cfg: enabledConfig(), wantErr: true},
		{name: "nil gateway", log: log, renderer: r, cfg: enabledConfig(), wantErr: true},
		{name: "nil renderer", log: log, gw: gw, cfg: enabledConfig(), wantErr: true},
		{name: "empty account", log: log, gw: gw, renderer: r, cfg: Config{EnableVotes: true}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.log, tt.gw, tt.renderer, tt.cfg, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDispatch_VoteThenReply(t *testing.T) {
	t.Parallel()
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
	gw.On("Vote", mock.Anything, post, "curator", 75).Return(nil).Once()
	gw.On("Reply", mock.Anything, post, "curator", "thanks!").Return(nil).Once()
	r := &staticRenderer{body: "thanks!"}

	res, err := newDispatcher(t, gw, r, enabledConfig()).Dispatch(t.Context(), command)
	require.NoError(t, err)

	assert.Equal(t, Result{Resolved: true, Vote: OutcomeSuccess, Reply: OutcomeSuccess}, res)
	assert.Equal(t, []string{"get", "vote", "reply"}, gw.Calls())
	assert.Equal(t, []render.Data{{TargetAccount: "alice", AuthorAccount: "caller123acct"}}, r.got)
	gw.AssertExpectations(t)
}

func TestDispatch_PostNotFound(t *testing.T) {
	t.Parallel()
	core, recorded := observer.New(zap.InfoLevel)
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).
		Return(nil, fmt.Errorf("get content: %w", gateway.ErrNotFound)).Once()

	d, err := New(zap.New(core).Sugar(), gw, &staticRenderer{}, enabledConfig(), nil)
	require.NoError(t, err)

	res, err := d.Dispatch(t.Context(), command)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, OutcomeNotAttempted, res.Vote)
	assert.Equal(t, OutcomeNotAttempted, res.Reply)
	assert.Equal(t, []string{"get"}, gw.Calls())
	assert.Equal(t, 1, recorded.FilterMessage("post not found").Len())
	gw.AssertExpectations(t)
}

func TestDispatch_ResolveFailurePropagates(t *testing.T) {
	t.Parallel()
	rpcErr := errors.New("connection reset")
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(nil, rpcErr).Once()

	_, err := newDispatcher(t, gw, &staticRenderer{}, enabledConfig()).Dispatch(t.Context(), command)
	require.ErrorIs(t, err, rpcErr)
	assert.Equal(t, []string{"get"}, gw.Calls())
}

func TestDispatch_RecoverableVoteFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		voteErr error
		want    Outcome
		logMsg  string
	}{
		{name: "archived post", voteErr: gateway.ErrArchivedPost, want: OutcomeArchived, logMsg: "post is too old to be voted"},
		{name: "vote limit", voteErr: fmt.Errorf("broadcast: %w", gateway.ErrVoteLimitExceeded), want: OutcomeVoteLimit, logMsg: "vote changed too many times"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			core, recorded := observer.New(zap.WarnLevel)
			gw := &mockGateway{}
			gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
			gw.On("Vote", mock.Anything, post, "curator", 75).Return(tt.voteErr).Once()
			gw.On("Reply", mock.Anything, post, "curator", "body").Return(nil).Once()

			d, err := New(zap.New(core).Sugar(), gw, &staticRenderer{body: "body"}, enabledConfig(), nil)
			require.NoError(t, err)

			res, err := d.Dispatch(t.Context(), command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Vote)
			assert.Equal(t, OutcomeSuccess, res.Reply)
			assert.Equal(t, []string{"get", "vote", "reply"}, gw.Calls())
			assert.Equal(t, 1, recorded.FilterMessage(tt.logMsg).Len())
			gw.AssertExpectations(t)
		})
	}
}

func TestDispatch_UnclassifiedVoteFailureStops(t *testing.T) {
	t.Parallel()
	rpcErr := errors.New("missing required posting authority")
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
	gw.On("Vote", mock.Anything, post, "curator", 75).Return(rpcErr).Once()

	res, err := newDispatcher(t, gw, &staticRenderer{}, enabledConfig()).Dispatch(t.Context(), command)
	require.ErrorIs(t, err, rpcErr)
	assert.Equal(t, OutcomeFailed, res.Vote)
	assert.Equal(t, OutcomeNotAttempted, res.Reply)
	assert.Equal(t, []string{"get", "vote"}, gw.Calls())
	gw.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ReplyFailurePropagates(t *testing.T) {
	t.Parallel()
	rpcErr := errors.New("bandwidth limit exceeded")
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
	gw.On("Vote", mock.Anything, post, "curator", 75).Return(nil).Once()
	gw.On("Reply", mock.Anything, post, "curator", "").Return(rpcErr).Once()

	res, err := newDispatcher(t, gw, &staticRenderer{}, enabledConfig()).Dispatch(t.Context(), command)
	require.ErrorIs(t, err, rpcErr)
	assert.Equal(t, OutcomeSuccess, res.Vote)
	assert.Equal(t, OutcomeFailed, res.Reply)
}

func TestDispatch_Toggles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		votes     bool
		comments  bool
		wantCalls []string
		wantVote  Outcome
		wantReply Outcome
	}{
		{name: "votes only", votes: true, wantCalls: []string{"get", "vote"}, wantVote: OutcomeSuccess, wantReply: OutcomeDisabled},
		{name: "comments only", comments: true, wantCalls: []string{"get", "reply"}, wantVote: OutcomeDisabled, wantReply: OutcomeSuccess},
		{name: "both disabled", wantCalls: []string{"get"}, wantVote: OutcomeDisabled, wantReply: OutcomeDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gw := &mockGateway{}
			gw.On("GetPost", mock.Anything, target).Return(post, nil)
			gw.On("Vote", mock.Anything, post, "curator", mock.Anything).Return(nil)
			gw.On("Reply", mock.Anything, post, "curator", mock.Anything).Return(nil)

			cfg := Config{Account: "curator", EnableVotes: tt.votes, EnableComments: tt.comments}
			res, err := newDispatcher(t, gw, &staticRenderer{}, cfg).Dispatch(t.Context(), command)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, gw.Calls())
			assert.Equal(t, tt.wantVote, res.Vote)
			assert.Equal(t, tt.wantReply, res.Reply)
		})
	}
}

func TestDispatch_RenderFailure(t *testing.T) {
	t.Parallel()
	renderErr := errors.New("template exploded")
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()

	_, err := newDispatcher(t, gw, &staticRenderer{err: renderErr}, enabledConfig()).Dispatch(t.Context(), command)
	require.ErrorIs(t, err, renderErr)
	assert.Equal(t, []string{"get"}, gw.Calls())
}

func TestDispatch_CooldownAfterEachReaction(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
	gw.On("Vote", mock.Anything, post, "curator", 75).Return(nil).Once()
	gw.On("Reply", mock.Anything, post, "curator", "").Return(nil).Once()

	cfg := enabledConfig()
	cfg.Cooldown = Cooldown{Duration: DefaultCooldown, Clock: clock}
	d := newDispatcher(t, gw, &staticRenderer{}, cfg)

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(t.Context(), command)
		done <- err
	}()

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	// Waiting after the vote: the reply must not have been sent yet.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, []string{"get", "vote"}, gw.Calls())
	clock.Advance(DefaultCooldown)

	// Waiting after the reply.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, []string{"get", "vote", "reply"}, gw.Calls())
	select {
	case <-done:
		require.Fail(t, "dispatch returned before the reply cooldown elapsed")
	default:
	}
	clock.Advance(DefaultCooldown)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		require.Fail(t, "timeout waiting for dispatch")
	}
}

func TestDispatch_NoCooldownAfterRecoverableFailure(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	gw := &mockGateway{}
	gw.On("GetPost", mock.Anything, target).Return(post, nil).Once()
	gw.On("Vote", mock.Anything, post, "curator", 75).Return(gateway.ErrArchivedPost).Once()

	cfg := Config{
		Account:     "curator",
		EnableVotes: true,
		Cooldown:    Cooldown{Duration: DefaultCooldown, Clock: clock},
	}
	res, err := newDispatcher(t, gw, &staticRenderer{}, cfg).Dispatch(t.Context(), command)
	require.NoError(t, err)
	assert.Equal(t, OutcomeArchived, res.Vote)
}
