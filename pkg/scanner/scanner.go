// Package scanner wires the curation pipeline: it streams comment operations
// from the feed and runs each one through the filter, the command parser and
// the dispatcher, strictly one at a time.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/checkpointer"
	"github.com/ava-labs/hive-curator/pkg/command"
	"github.com/ava-labs/hive-curator/pkg/dispatcher"
	"github.com/ava-labs/hive-curator/pkg/filter"
	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/metrics"
	"github.com/ava-labs/hive-curator/pkg/types"
)

// ReasonBadDirective is the skip reason for commands without a usable vote weight.
const ReasonBadDirective = "bad_directive"

// Dispatcher executes the reactions of a command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd types.Command) (dispatcher.Result, error)
}

// Config holds the Scanner dependencies.
type Config struct {
	Feed         gateway.Feed
	Checkpointer checkpointer.Checkpointer
	Filter       *filter.Filter
	Parser       *command.Parser
	Dispatcher   Dispatcher
	Metrics      *metrics.Metrics

	// FrontendURL is the base of the links logged for detected commands.
	FrontendURL string
}

type Scanner struct {
	log          *zap.SugaredLogger
	feed         gateway.Feed
	checkpointer checkpointer.Checkpointer
	filter       *filter.Filter
	parser       *command.Parser
	dispatcher   Dispatcher
	metrics      *metrics.Metrics
	frontendURL  string
}

func New(log *zap.SugaredLogger, cfg Config) (*Scanner, error) {
	if log == nil {
		return nil, errors.New("invalid logger: must not be nil")
	}
	if cfg.Feed == nil {
		return nil, errors.New("invalid feed: must not be nil")
	}
	if cfg.Checkpointer == nil {
		return nil, errors.New("invalid checkpointer: must not be nil")
	}
	if cfg.Filter == nil {
		return nil, errors.New("invalid filter: must not be nil")
	}
	if cfg.Parser == nil {
		return nil, errors.New("invalid parser: must not be nil")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("invalid dispatcher: must not be nil")
	}
	return &Scanner{
		log:          log,
		feed:         cfg.Feed,
		checkpointer: cfg.Checkpointer,
		filter:       cfg.Filter,
		parser:       cfg.Parser,
		dispatcher:   cfg.Dispatcher,
		metrics:      cfg.Metrics,
		frontendURL:  strings.TrimRight(cfg.FrontendURL, "/"),
	}, nil
}

// Run is a BLOCKING call. It resumes after the stored checkpoint and returns
// on a checkpoint failure, an unclassified gateway failure, or when ctx is done.
func (s *Scanner) Run(ctx context.Context) error {
	start, err := s.StartHeight(ctx)
	if err != nil {
		return err
	}
	if start == 0 {
		s.log.Infow("no checkpoint found, starting from the feed default")
	} else {
		s.log.Infow("resuming scan", "startBlock", start)
	}

	if err := s.feed.Stream(ctx, start, s.handle); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

// StartHeight returns the block the scan starts at: the one after the
// checkpoint, or 0 for the feed default when no checkpoint exists.
func (s *Scanner) StartHeight(ctx context.Context) (uint64, error) {
	height, exists, err := s.checkpointer.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read checkpoint: %w", err)
	}
	if !exists {
		return 0, nil
	}
	return height + 1, nil
}

func (s *Scanner) handle(ctx context.Context, op types.Operation) error {
	s.metrics.RecordOperation(op.BlockNumber)

	decision, err := s.filter.Apply(ctx, op)
	if err != nil {
		return err
	}
	if !decision.Accepted() {
		s.metrics.IncSkipped(string(decision.Reason))
		s.log.Debugw("skipping operation",
			"block", op.BlockNumber,
			"author", op.Author,
			"permlink", op.Permlink,
			"reason", decision.Reason,
		)
		return nil
	}

	cmd, err := s.parser.Parse(op)
	if err != nil {
		if errors.Is(err, command.ErrNoDirective) || errors.Is(err, command.ErrOutOfRange) {
			s.metrics.IncSkipped(ReasonBadDirective)
			s.log.Warnw("vote weight not specified",
				"block", op.BlockNumber,
				"link", s.link(op.Author, op.Permlink),
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("parse command in block %d: %w", op.BlockNumber, err)
	}

	s.metrics.IncCommands()
	s.log.Infow("found command",
		"block", op.BlockNumber,
		"link", s.link(op.Author, op.Permlink),
		"target", cmd.Target.String(),
		"weight", cmd.VoteWeight,
	)

	began := time.Now()
	res, err := s.dispatcher.Dispatch(ctx, cmd)
	s.metrics.ObserveDispatchDuration(time.Since(began).Seconds())
	if err != nil {
		return fmt.Errorf("dispatch command from block %d: %w", op.BlockNumber, err)
	}

	s.log.Infow("command handled",
		"target", cmd.Target.String(),
		"resolved", res.Resolved,
		"vote", res.Vote,
		"reply", res.Reply,
	)
	return nil
}

func (s *Scanner) link(author, permlink string) string {
	return fmt.Sprintf("%s/@%s/%s", s.frontendURL, author, permlink)
}
