package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/metrics"
	"github.com/ava-labs/hive-curator/pkg/render"
	"github.com/ava-labs/hive-curator/pkg/types"
)

// Outcome describes what happened to one reaction of a command.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeDisabled     Outcome = "disabled"
	OutcomeNotAttempted Outcome = "not_attempted"
	OutcomeArchived     Outcome = "archived_post"
	OutcomeVoteLimit    Outcome = "vote_limit_exceeded"
	OutcomeFailed       Outcome = "failed"
)

// Result reports how a command was handled. When the target could not be
// resolved both reactions are OutcomeNotAttempted.
type Result struct {
	Resolved bool
	Vote     Outcome
	Reply    Outcome
}

// Config holds the dispatcher settings. It is read once and never mutated.
type Config struct {
	// Account is the reacting account: the voter and the reply author.
	Account        string
	EnableVotes    bool
	EnableComments bool
	Cooldown       Cooldown
}

// Dispatcher executes the reactions of a command against its parent post,
// one gateway call at a time.
type Dispatcher struct {
	log      *zap.SugaredLogger
	gw       gateway.Gateway
	renderer render.Renderer
	cfg      Config
	metrics  *metrics.Metrics
}

func New(
	log *zap.SugaredLogger,
	gw gateway.Gateway,
	renderer render.Renderer,
	cfg Config,
	m *metrics.Metrics,
) (*Dispatcher, error) {
	if log == nil {
		return nil, errors.New("invalid logger: must not be nil")
	}
	if gw == nil {
		return nil, errors.New("invalid gateway: must not be nil")
	}
	if renderer == nil {
		return nil, errors.New("invalid renderer: must not be nil")
	}
	if cfg.Account == "" {
		return nil, errors.New("invalid account: must not be empty")
	}
	return &Dispatcher{
		log:      log,
		gw:       gw,
		renderer: renderer,
		cfg:      cfg,
		metrics:  m,
	}, nil
}

// Dispatch resolves the command's target, then votes and replies as configured.
// A missing target, an archived post and an exhausted vote-change allowance are
// logged and reported in the Result. Any other gateway failure is returned and
// the remaining steps are not run.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd types.Command) (Result, error) {
	res := Result{Vote: OutcomeNotAttempted, Reply: OutcomeNotAttempted}
	target := cmd.Target.String()

	post, err := d.gw.GetPost(ctx, cmd.Target)
	if err != nil {
		if gateway.Classify(err) == gateway.KindNotFound {
			d.log.Infow("post not found", "target", target)
			return res, nil
		}
		return res, fmt.Errorf("resolve %s: %w", target, err)
	}
	res.Resolved = true

	body, err := d.renderer.Render(render.Data{
		TargetAccount: cmd.Target.Author,
		AuthorAccount: cmd.SourceAuthor,
	})
	if err != nil {
		return res, fmt.Errorf("render reply for %s: %w", target, err)
	}

	res.Vote, err = d.vote(ctx, post, cmd)
	if err != nil {
		return res, err
	}

	res.Reply, err = d.reply(ctx, post, body)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (d *Dispatcher) vote(ctx context.Context, post *types.Post, cmd types.Command) (Outcome, error) {
	target := post.Identifier().String()
	if !d.cfg.EnableVotes {
		d.log.Debugw("voting is disabled", "target", target)
		return OutcomeDisabled, nil
	}

	d.log.Infow("voting", "target", target, "voter", d.cfg.Account, "weight", cmd.VoteWeight)
	err := d.gw.Vote(ctx, post, d.cfg.Account, cmd.VoteWeight)

	var outcome Outcome
	switch gateway.Classify(err) {
	case gateway.KindArchivedPost:
		d.log.Warnw("post is too old to be voted", "target", target)
		outcome = OutcomeArchived
	case gateway.KindVoteLimitExceeded:
		d.log.Warnw("vote changed too many times", "target", target)
		outcome = OutcomeVoteLimit
	case gateway.KindNotFound, gateway.KindOther:
		if err != nil {
			d.metrics.RecordReaction(metrics.ReactionVote, string(OutcomeFailed))
			return OutcomeFailed, fmt.Errorf("vote on %s: %w", target, err)
		}
		outcome = OutcomeSuccess
	}
	d.metrics.RecordReaction(metrics.ReactionVote, string(outcome))

	if outcome == OutcomeSuccess {
		if err := d.cfg.Cooldown.Wait(ctx); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

func (d *Dispatcher) reply(ctx context.Context, post *types.Post, body string) (Outcome, error) {
	target := post.Identifier().String()
	if !d.cfg.EnableComments {
		d.log.Debugw("commenting is disabled", "target", target)
		return OutcomeDisabled, nil
	}

	d.log.Infow("commenting", "target", target, "author", d.cfg.Account)
	if err := d.gw.Reply(ctx, post, d.cfg.Account, body); err != nil {
		d.metrics.RecordReaction(metrics.ReactionReply, string(OutcomeFailed))
		return OutcomeFailed, fmt.Errorf("reply to %s: %w", target, err)
	}
	d.metrics.RecordReaction(metrics.ReactionReply, string(OutcomeSuccess))

	if err := d.cfg.Cooldown.Wait(ctx); err != nil {
		return OutcomeSuccess, err
	}
	return OutcomeSuccess, nil
}
