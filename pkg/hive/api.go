package hive

import (
	"context"
	"fmt"

	"github.com/ava-labs/hive-curator/pkg/gateway"
	"github.com/ava-labs/hive-curator/pkg/types"
)

const (
	methodGetDynamicGlobalProperties = "condenser_api.get_dynamic_global_properties"
	methodGetOpsInBlock              = "condenser_api.get_ops_in_block"
	methodGetContent                 = "condenser_api.get_content"
	methodBroadcastTransaction       = "condenser_api.broadcast_transaction_synchronous"

	opComment = "comment"
)

func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error) {
	var props DynamicGlobalProperties
	if err := c.Call(ctx, &props, methodGetDynamicGlobalProperties); err != nil {
		return nil, err
	}
	return &props, nil
}

// GetCommentsInBlock returns the comment operations of block height, in order.
// Virtual operations are not requested.
func (c *Client) GetCommentsInBlock(ctx context.Context, height uint64) ([]types.Operation, error) {
	var applied []appliedOperation
	if err := c.Call(ctx, &applied, methodGetOpsInBlock, height, false); err != nil {
		return nil, err
	}

	var ops []types.Operation
	for _, a := range applied {
		if a.Op.Name != opComment {
			continue
		}
		if a.Block == 0 {
			a.Block = height
		}
		op, err := a.toOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// GetContent fetches a post. It returns gateway.ErrNotFound when the node
// knows no post under id.
func (c *Client) GetContent(ctx context.Context, id types.Identifier) (*types.Post, error) {
	var res content
	if err := c.Call(ctx, &res, methodGetContent, id.Author, id.Permlink); err != nil {
		return nil, mapError(err)
	}
	if res.Author == "" {
		return nil, fmt.Errorf("get content %s: %w", id, gateway.ErrNotFound)
	}
	return res.toPost(), nil
}

// BroadcastTransaction submits a signed transaction and waits for its inclusion.
func (c *Client) BroadcastTransaction(ctx context.Context, tx *Transaction) error {
	if len(tx.Signatures) == 0 {
		return ErrUnsigned
	}
	if err := c.Call(ctx, nil, methodBroadcastTransaction, tx); err != nil {
		return mapError(err)
	}
	return nil
}
