package hive

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TransactionTTL is how far past the head block time a transaction stays valid.
const TransactionTTL = time.Minute

const (
	opIDVote    = 0
	opIDComment = 1
)

var ErrUnsigned = errors.New("transaction is not signed")

// Operation is a broadcastable operation.
type Operation interface {
	// ID is the operation's position in the protocol's operation variant.
	ID() uint64
	Name() string
	encode(e *encoder)
}

// VoteOperation votes on a post. Weight is in basis points, -10000..10000.
type VoteOperation struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int16  `json:"weight"`
}

func (VoteOperation) ID() uint64   { return opIDVote }
func (VoteOperation) Name() string { return "vote" }

func (o VoteOperation) encode(e *encoder) {
	e.string(o.Voter)
	e.string(o.Author)
	e.string(o.Permlink)
	e.int16(o.Weight)
}

// CommentOperation publishes a post or, with a parent author, a reply.
type CommentOperation struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JSONMetadata   string `json:"json_metadata"`
}

func (CommentOperation) ID() uint64   { return opIDComment }
func (CommentOperation) Name() string { return "comment" }

func (o CommentOperation) encode(e *encoder) {
	e.string(o.ParentAuthor)
	e.string(o.ParentPermlink)
	e.string(o.Author)
	e.string(o.Permlink)
	e.string(o.Title)
	e.string(o.Body)
	e.string(o.JSONMetadata)
}

// Transaction is an unsigned or signed Hive transaction.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     time.Time
	Operations     []Operation
	// Signatures are hex encoded 65 byte compact signatures.
	Signatures []string
}

// NewTransaction builds a transaction referencing the head block of props.
func NewTransaction(props *DynamicGlobalProperties, ops ...Operation) (*Transaction, error) {
	prefix, err := refBlockPrefix(props.HeadBlockID)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		RefBlockNum:    uint16(props.HeadBlockNumber & 0xffff),
		RefBlockPrefix: prefix,
		Expiration:     props.Time.Add(TransactionTTL).UTC().Truncate(time.Second),
		Operations:     ops,
	}, nil
}

// refBlockPrefix is bytes 4..8 of the block id, little endian.
func refBlockPrefix(blockID string) (uint32, error) {
	id, err := hex.DecodeString(blockID)
	if err != nil {
		return 0, fmt.Errorf("decode head block id %q: %w", blockID, err)
	}
	if len(id) < 8 {
		return 0, fmt.Errorf("decode head block id %q: too short", blockID)
	}
	return binary.LittleEndian.Uint32(id[4:8]), nil
}

// Serialize returns the binary form of the transaction without signatures,
// which is what gets signed.
func (t *Transaction) Serialize() []byte {
	var e encoder
	e.uint16(t.RefBlockNum)
	e.uint32(t.RefBlockPrefix)
	e.uint32(uint32(t.Expiration.Unix()))
	e.varint(uint64(len(t.Operations)))
	for _, op := range t.Operations {
		e.varint(op.ID())
		op.encode(&e)
	}
	// extensions
	e.varint(0)
	return e.buf.Bytes()
}

type transactionJSON struct {
	RefBlockNum    uint16            `json:"ref_block_num"`
	RefBlockPrefix uint32            `json:"ref_block_prefix"`
	Expiration     string            `json:"expiration"`
	Operations     []json.RawMessage `json:"operations"`
	Extensions     []any             `json:"extensions"`
	Signatures     []string          `json:"signatures"`
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		RefBlockNum:    t.RefBlockNum,
		RefBlockPrefix: t.RefBlockPrefix,
		Expiration:     t.Expiration.UTC().Format(TimeLayout),
		Operations:     make([]json.RawMessage, 0, len(t.Operations)),
		Extensions:     []any{},
		Signatures:     t.Signatures,
	}
	if out.Signatures == nil {
		out.Signatures = []string{}
	}
	for _, op := range t.Operations {
		b, err := json.Marshal([]any{op.Name(), op})
		if err != nil {
			return nil, fmt.Errorf("encode %s operation: %w", op.Name(), err)
		}
		out.Operations = append(out.Operations, b)
	}
	return json.Marshal(out)
}

// encoder writes the protocol's binary format: little endian integers and
// varint length prefixed strings.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) varint(v uint64) {
	e.buf.Write(binary.AppendUvarint(nil, v))
}

func (e *encoder) uint16(v uint16) {
	e.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (e *encoder) uint32(v uint32) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (e *encoder) int16(v int16) {
	e.uint16(uint16(v))
}

func (e *encoder) string(s string) {
	e.varint(uint64(len(s)))
	e.buf.WriteString(s)
}
