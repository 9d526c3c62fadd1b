// Package command extracts curation commands from comment bodies.
//
// Grammar, matched anywhere in the body:
//
//	<token> [whitespace] [+|-] <digits>
//
// where digits is 0..100 without leading zeros. Every occurrence of the token
// is tried in order and the first one followed by a valid directive wins.
package command

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ava-labs/hive-curator/pkg/types"
)

const (
	MinWeight = -100
	MaxWeight = 100
)

var (
	ErrEmptyToken = errors.New("invalid command token: must not be empty")
	// ErrNoDirective means the body carries the token but no numeric directive follows it.
	ErrNoDirective = errors.New("vote weight not specified")
	// ErrOutOfRange means a numeric directive follows the token but is outside [-100, 100].
	ErrOutOfRange = errors.New("vote weight out of range")
)

// Parser turns filtered operations into Commands.
type Parser struct {
	token       string
	enableVotes bool
}

// NewParser returns a Parser for token. With votes disabled no directive is
// required and every command carries a zero weight.
func NewParser(token string, enableVotes bool) (*Parser, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	return &Parser{token: token, enableVotes: enableVotes}, nil
}

// Parse builds the Command for op.
func (p *Parser) Parse(op types.Operation) (types.Command, error) {
	cmd := types.Command{
		Target: types.Identifier{
			Author:   op.ParentAuthor,
			Permlink: op.ParentPermlink,
		},
		SourceAuthor:   op.Author,
		SourcePermlink: op.Permlink,
		BlockNumber:    op.BlockNumber,
	}
	if !p.enableVotes {
		return cmd, nil
	}

	weight, err := ParseWeight(op.Body, p.token)
	if err != nil {
		return types.Command{}, err
	}
	cmd.VoteWeight = weight
	cmd.HasVoteWeight = true
	return cmd, nil
}

// ParseWeight returns the first valid weight directive following token in body.
// ErrOutOfRange is reported when no occurrence is valid and at least one
// carried a well-formed number outside the allowed range.
func ParseWeight(body, token string) (int, error) {
	if token == "" {
		return 0, ErrEmptyToken
	}
	sawOutOfRange := false
	rest := body
	for {
		i := strings.Index(rest, token)
		if i < 0 {
			break
		}
		w, err := directive(rest[i+len(token):])
		if err == nil {
			return w, nil
		}
		if errors.Is(err, ErrOutOfRange) {
			sawOutOfRange = true
		}
		// Occurrences may overlap: resume one rune past this match.
		_, size := utf8.DecodeRuneInString(rest[i:])
		rest = rest[i+size:]
	}
	if sawOutOfRange {
		return 0, ErrOutOfRange
	}
	return 0, ErrNoDirective
}

// directive reads "[whitespace][sign]digits" from the start of s.
func directive(s string) (int, error) {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if !unicode.IsSpace(r) {
			break
		}
		s = s[size:]
	}

	negative := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	digits := s[:n]
	switch {
	case n == 0:
		return 0, ErrNoDirective
	case n > 1 && digits[0] == '0':
		return 0, ErrNoDirective
	case n > 3:
		return 0, ErrOutOfRange
	}

	v := 0
	for i := 0; i < n; i++ {
		v = v*10 + int(digits[i]-'0')
	}
	if v > MaxWeight {
		return 0, ErrOutOfRange
	}
	if negative {
		v = -v
	}
	return v, nil
}
