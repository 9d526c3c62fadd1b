package hive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/metrics"
)

// DefaultPollInterval matches the Hive block time.
const DefaultPollInterval = 3 * time.Second

// Mode selects the newest block the streamer reads.
type Mode string

const (
	// ModeIrreversible only reads blocks that can no longer be reverted.
	ModeIrreversible Mode = "irreversible"
	// ModeHead reads up to the head block.
	ModeHead Mode = "head"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeIrreversible, ModeHead:
		return m, nil
	default:
		return "", fmt.Errorf("invalid stream mode %q: want %q or %q", s, ModeIrreversible, ModeHead)
	}
}

// StreamerConfig holds the Streamer settings.
type StreamerConfig struct {
	Mode         Mode
	PollInterval time.Duration
	// Clock drives the wait between polls. Defaults to the real clock.
	Clock clockwork.Clock
}

// Streamer walks the chain block by block and yields its comment operations.
type Streamer struct {
	log     *zap.SugaredLogger
	client  *Client
	cfg     StreamerConfig
	metrics *metrics.Metrics
}

var _ gateway.Feed = (*Streamer)(nil)

func NewStreamer(log *zap.SugaredLogger, client *Client, cfg StreamerConfig, m *metrics.Metrics) (*Streamer, error) {
	if log == nil {
		return nil, errors.New("invalid logger: must not be nil")
	}
	if client == nil {
		return nil, errors.New("invalid client: must not be nil")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeIrreversible
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Streamer{log: log, client: client, cfg: cfg, metrics: m}, nil
}

// Stream implements gateway.Feed. A zero start begins at the newest block of
// the configured mode.
func (s *Streamer) Stream(ctx context.Context, start uint64, handle gateway.Handler) error {
	last, err := s.latest(ctx)
	if err != nil {
		return err
	}
	next := start
	if next == 0 {
		next = last
	}
	s.log.Infow("streaming blocks", "startBlock", next, "latestBlock", last, "mode", s.cfg.Mode)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if next > last {
			select {
			case <-s.cfg.Clock.After(s.cfg.PollInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
			if last, err = s.latest(ctx); err != nil {
				return err
			}
			continue
		}

		ops, err := s.client.GetCommentsInBlock(ctx, next)
		if err != nil {
			return fmt.Errorf("read block %d: %w", next, err)
		}
		for _, op := range ops {
			if err := handle(ctx, op); err != nil {
				return err
			}
		}
		next++
	}
}

// latest returns the newest block the streamer may read.
func (s *Streamer) latest(ctx context.Context) (uint64, error) {
	props, err := s.client.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("read chain state: %w", err)
	}
	s.metrics.SetHeadBlock(props.HeadBlockNumber)
	if s.cfg.Mode == ModeHead {
		return props.HeadBlockNumber, nil
	}
	return props.LastIrreversibleBlockNum, nil
}
