package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/hive-curator/pkg/checkpointer"
	"github.com/ava-labs/hive-curator/pkg/types"
)

// Reason explains why an operation was discarded.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnauthorized Reason = "unauthorized"
	ReasonRootPost     Reason = "root_post"
	ReasonNoCommand    Reason = "no_command"
)

// Decision is the outcome of Apply. A zero Reason means the operation is accepted.
type Decision struct {
	Reason Reason
}

func (d Decision) Accepted() bool { return d.Reason == ReasonNone }

// Filter selects the comment operations that carry a command from the
// authorized caller. It owns checkpoint advancement: every operation it sees
// moves the checkpoint, whether it is accepted or not.
type Filter struct {
	checkpointer  checkpointer.Checkpointer
	callerAccount string
	commandToken  string
}

func New(c checkpointer.Checkpointer, callerAccount, commandToken string) (*Filter, error) {
	if c == nil {
		return nil, errors.New("invalid checkpointer: must not be nil")
	}
	if callerAccount == "" {
		return nil, errors.New("invalid caller account: must not be empty")
	}
	if commandToken == "" {
		return nil, errors.New("invalid command token: must not be empty")
	}
	return &Filter{
		checkpointer:  c,
		callerAccount: callerAccount,
		commandToken:  commandToken,
	}, nil
}

// Apply saves op's block number as the checkpoint and then decides whether op
// should reach the command parser. The only error is a failed checkpoint write.
func (f *Filter) Apply(ctx context.Context, op types.Operation) (Decision, error) {
	if err := f.checkpointer.Write(ctx, op.BlockNumber); err != nil {
		return Decision{}, fmt.Errorf("save checkpoint %d: %w", op.BlockNumber, err)
	}
	return Decision{Reason: f.classify(op)}, nil
}

func (f *Filter) classify(op types.Operation) Reason {
	// Substring match: the caller setting may name a family of accounts.
	if !strings.Contains(op.Author, f.callerAccount) {
		return ReasonUnauthorized
	}
	if !op.IsReply() {
		return ReasonRootPost
	}
	if !strings.Contains(op.Body, f.commandToken) {
		return ReasonNoCommand
	}
	return ReasonNone
}
