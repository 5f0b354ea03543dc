package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOption_Precedence(t *testing.T) {
	options := []Option{
		{Value: "TH", Label: "Thailand"},
		{Value: "TW", Label: "Taiwan"},
		{Value: "TJ", Label: "Tajikistan"},
	}

	t.Run("exact beats substring", func(t *testing.T) {
		got, tier := MatchOption(options, "Thailand")
		assert.Equal(t, TierExact, tier)
		assert.Equal(t, "TH", got.Value)
	})

	t.Run("exact on underlying value", func(t *testing.T) {
		got, tier := MatchOption(options, "TW")
		assert.Equal(t, TierExact, tier)
		assert.Equal(t, "Taiwan", got.Label)
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		got, tier := MatchOption(options, "jikist")
		assert.Equal(t, TierSubstring, tier)
		assert.Equal(t, "TJ", got.Value)
	})

	t.Run("option prefix of value", func(t *testing.T) {
		got, tier := MatchOption(options, "thailand (kingdom of)")
		assert.Equal(t, TierPrefix, tier)
		assert.Equal(t, "TH", got.Value)
	})

	t.Run("no match", func(t *testing.T) {
		_, tier := MatchOption(options, "Zanzibar")
		assert.Equal(t, TierNone, tier)
	})

	t.Run("empty want", func(t *testing.T) {
		_, tier := MatchOption(options, "")
		assert.Equal(t, TierNone, tier)
	})
}
