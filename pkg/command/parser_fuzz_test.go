package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzParseWeight checks that ParseWeight never panics and never returns a
// weight outside the allowed range.
// Run with: go test -fuzz=FuzzParseWeight -fuzztime=30s ./pkg/command/
func FuzzParseWeight(f *testing.F) {
	f.Add("!vote 100")
	f.Add("!vote -100")
	f.Add("!vote 101")
	f.Add("!vote")
	f.Add("!vote!vote!vote 7")
	f.Add("!vote   9")
	f.Add("!vote -")
	f.Add("")

	f.Fuzz(func(t *testing.T, body string) {
		w, err := ParseWeight(body, token)
		if err == nil {
			require.GreaterOrEqual(t, w, MinWeight)
			require.LessOrEqual(t, w, MaxWeight)
		}
	})
}
