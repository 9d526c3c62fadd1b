package hive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ava-labs/hive-curator/pkg/types"
)

// TimeLayout is the timestamp format of the Hive API. Timestamps are UTC.
const TimeLayout = "2006-01-02T15:04:05"

// Time is a timestamp in the Hive API format.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode time: %w", err)
	}
	parsed, err := time.ParseInLocation(TimeLayout, strings.TrimSuffix(s, "Z"), time.UTC)
	if err != nil {
		return fmt.Errorf("decode time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimeLayout))
}

// DynamicGlobalProperties is the subset of the chain state the curator reads.
type DynamicGlobalProperties struct {
	HeadBlockNumber          uint64 `json:"head_block_number"`
	HeadBlockID              string `json:"head_block_id"`
	Time                     Time   `json:"time"`
	LastIrreversibleBlockNum uint64 `json:"last_irreversible_block_num"`
}

// rawOperation is the `["name", {...}]` pair of the condenser API.
type rawOperation struct {
	Name    string
	Payload json.RawMessage
}

func (o *rawOperation) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode operation: want [name, payload], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Name); err != nil {
		return fmt.Errorf("decode operation name: %w", err)
	}
	o.Payload = pair[1]
	return nil
}

type appliedOperation struct {
	Block     uint64       `json:"block"`
	TrxID     string       `json:"trx_id"`
	Timestamp Time         `json:"timestamp"`
	Op        rawOperation `json:"op"`
}

// commentPayload is the JSON body of a comment operation.
type commentPayload struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JSONMetadata   string `json:"json_metadata"`
}

func (a appliedOperation) toOperation() (types.Operation, error) {
	var c commentPayload
	if err := json.Unmarshal(a.Op.Payload, &c); err != nil {
		return types.Operation{}, fmt.Errorf("decode comment in block %d: %w", a.Block, err)
	}
	return types.Operation{
		Author:         c.Author,
		Permlink:       c.Permlink,
		ParentAuthor:   c.ParentAuthor,
		ParentPermlink: c.ParentPermlink,
		Body:           c.Body,
		BlockNumber:    a.Block,
		TrxID:          a.TrxID,
		Timestamp:      a.Timestamp.Time,
	}, nil
}

// content is the condenser_api.get_content result. A missing post comes back
// with an empty author.
type content struct {
	ID           int64  `json:"id"`
	Author       string `json:"author"`
	Permlink     string `json:"permlink"`
	ParentAuthor string `json:"parent_author"`
	Category     string `json:"category"`
	Title        string `json:"title"`
	CashoutTime  Time   `json:"cashout_time"`
}

func (c content) toPost() *types.Post {
	return &types.Post{
		ID:           c.ID,
		Author:       c.Author,
		Permlink:     c.Permlink,
		ParentAuthor: c.ParentAuthor,
		Category:     c.Category,
		Title:        c.Title,
		CashoutTime:  c.CashoutTime.Time,
	}
}
