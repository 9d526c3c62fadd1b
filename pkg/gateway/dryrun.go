package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/hive-curator/pkg/types"
)

// DryRun wraps a Gateway so that posts are still resolved but reactions are
// only logged.
type DryRun struct {
	next Gateway
	log  *zap.SugaredLogger
}

func NewDryRun(next Gateway, log *zap.SugaredLogger) *DryRun {
	return &DryRun{next: next, log: log}
}

func (d *DryRun) GetPost(ctx context.Context, id types.Identifier) (*types.Post, error) {
	return d.next.GetPost(ctx, id)
}

// Vote refuses archived posts the way a live vote would, and logs the rest.
func (d *DryRun) Vote(_ context.Context, post *types.Post, voter string, weight int) error {
	if post.Archived() {
		return fmt.Errorf("vote on %s: %w", post.Identifier(), ErrArchivedPost)
	}
	d.log.Infow("dry run: skipping vote",
		"post", post.Identifier().String(),
		"voter", voter,
		"weight", weight,
	)
	return nil
}

func (d *DryRun) Reply(_ context.Context, post *types.Post, author, body string) error {
	d.log.Infow("dry run: skipping reply",
		"post", post.Identifier().String(),
		"author", author,
		"bodyLength", len(body),
	)
	return nil
}

var _ Gateway = (*DryRun)(nil)
