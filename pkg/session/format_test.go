package session

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$0.0000", FormatUSD(0))
	assert.Equal(t, "$1.2346", FormatUSD(1.23456))
	assert.Equal(t, "n/a", FormatUSD(math.NaN()))
	assert.Equal(t, "n/a", FormatUSD(math.Inf(1)))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{12340 * time.Millisecond, "12.34s"},
		{59 * time.Second, "59.00s"},
		{60 * time.Second, "1m 0s"},
		{125 * time.Second, "2m 5s"},
		{119600 * time.Millisecond, "2m 0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in), tt.in.String())
	}
}

func TestUsage_Tokens(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5, ReasoningTokens: 2, TotalTokens: 17}
	assert.Equal(t, "10/5/2/17", u.Tokens())
}
