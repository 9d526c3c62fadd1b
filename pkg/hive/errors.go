package hive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ava-labs/hive-curator/pkg/gateway"
)

// Node assertion messages, lowercased, mapped onto the gateway error set.
var rpcMessageKinds = []struct {
	fragment string
	err      error
}{
	{"maximum number of vote changes", gateway.ErrVoteLimitExceeded},
	{"already voted in a similar way", gateway.ErrVoteLimitExceeded},
	{"paid out is forbidden", gateway.ErrArchivedPost},
	{"cashout window", gateway.ErrArchivedPost},
	{"archived", gateway.ErrArchivedPost},
}

// mapError tags an error object returned by the node with the matching
// gateway sentinel. Other errors are returned unchanged.
func mapError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	text := rpcErr.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		if data, mErr := json.Marshal(dataErr.ErrorData()); mErr == nil {
			text += " " + string(data)
		}
	}
	text = strings.ToLower(text)
	for _, k := range rpcMessageKinds {
		if strings.Contains(text, k.fragment) {
			return fmt.Errorf("%w: %w", k.err, err)
		}
	}
	return err
}
