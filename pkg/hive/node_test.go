package hive

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type nodeRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      uint64            `json:"id"`
}

type nodeResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *nodeError      `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// nodeError is the error object a node puts in a response. It satisfies
// rpc.Error and rpc.DataError like the errors the rpc client decodes.
type nodeError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *nodeError) Error() string  { return e.Message }
func (e *nodeError) ErrorCode() int { return e.Code }

func (e *nodeError) ErrorData() any {
	if len(e.Data) == 0 {
		return nil
	}
	return e.Data
}

// fakeNode is an in-process Hive API node serving the condenser methods the
// curator uses.
type fakeNode struct {
	t *testing.T

	mu sync.Mutex
	// props are served in order; the last one is repeated.
	props        []map[string]any
	blocks       map[uint64][]map[string]any
	contents     map[string]map[string]any
	broadcastErr *nodeError
	broadcasts   []map[string]any
	methods      []string
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	return &fakeNode{
		t:        t,
		props:    []map[string]any{chainState(100, 98)},
		blocks:   make(map[uint64][]map[string]any),
		contents: make(map[string]map[string]any),
	}
}

func chainState(head, irreversible uint64) map[string]any {
	return map[string]any{
		"head_block_number":           head,
		"head_block_id":               "0000006478563412aabbccddeeff00112233445566778899",
		"time":                        "2024-01-02T03:04:05",
		"last_irreversible_block_num": irreversible,
	}
}

func commentOp(block uint64, author, parentAuthor, parentPermlink, body string) map[string]any {
	return map[string]any{
		"block":     block,
		"trx_id":    "0123456789abcdef",
		"timestamp": "2024-01-02T03:04:05",
		"op": []any{"comment", map[string]any{
			"parent_author":   parentAuthor,
			"parent_permlink": parentPermlink,
			"author":          author,
			"permlink":        "c-" + author,
			"title":           "",
			"body":            body,
			"json_metadata":   "{}",
		}},
	}
}

func voteOp(block uint64) map[string]any {
	return map[string]any{
		"block":     block,
		"trx_id":    "fedcba9876543210",
		"timestamp": "2024-01-02T03:04:05",
		"op": []any{"vote", map[string]any{
			"voter": "v", "author": "a", "permlink": "p", "weight": 100,
		}},
	}
}

func (n *fakeNode) Methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...)
}

func (n *fakeNode) Broadcasts() []map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]any(nil), n.broadcasts...)
}

func (n *fakeNode) serve(req nodeRequest) (any, *nodeError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods = append(n.methods, req.Method)
	if req.Params == nil {
		return nil, &nodeError{Code: -32602, Message: "params must be an array"}
	}

	switch req.Method {
	case methodGetDynamicGlobalProperties:
		p := n.props[0]
		if len(n.props) > 1 {
			n.props = n.props[1:]
		}
		return p, nil
	case methodGetOpsInBlock:
		var height uint64
		if err := decodeParams(req, &height); err != nil {
			return nil, err
		}
		ops := n.blocks[height]
		if ops == nil {
			ops = []map[string]any{}
		}
		return ops, nil
	case methodGetContent:
		var author, permlink string
		if err := decodeParams(req, &author, &permlink); err != nil {
			return nil, err
		}
		c, ok := n.contents[author+"/"+permlink]
		if !ok {
			return map[string]any{"id": 0, "author": "", "permlink": "", "cashout_time": "1969-12-31T23:59:59"}, nil
		}
		return c, nil
	case methodBroadcastTransaction:
		var tx map[string]any
		if err := decodeParams(req, &tx); err != nil {
			return nil, err
		}
		n.broadcasts = append(n.broadcasts, tx)
		if n.broadcastErr != nil {
			return nil, n.broadcastErr
		}
		return map[string]any{"id": "abc", "block_num": 101}, nil
	default:
		return nil, &nodeError{Code: -32601, Message: "method not found"}
	}
}

func decodeParams(req nodeRequest, out ...any) *nodeError {
	if len(req.Params) < len(out) {
		return &nodeError{Code: -32602, Message: "missing params"}
	}
	for i, o := range out {
		if err := json.Unmarshal(req.Params[i], o); err != nil {
			return &nodeError{Code: -32602, Message: err.Error()}
		}
	}
	return nil
}

func (n *fakeNode) start() (*httptest.Server, *Client) {
	n.t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req nodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result, rpcErr := n.serve(req)
		resp := nodeResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
		if rpcErr == nil {
			b, err := json.Marshal(result)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			resp.Result = b
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	n.t.Cleanup(srv.Close)

	c, err := NewClient(n.t.Context(), srv.URL)
	require.NoError(n.t, err)
	n.t.Cleanup(c.Close)
	return srv, c
}
