package session

import (
	"fmt"
	"math"
	"time"
)

// FormatUSD renders a dollar amount with four decimals, or "n/a" when the
// value is not finite.
func FormatUSD(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "n/a"
	}
	return fmt.Sprintf("$%.4f", value)
}

// FormatElapsed renders durations under a minute as seconds with two
// decimals and longer ones as whole minutes and seconds.
func FormatElapsed(d time.Duration) string {
	totalSeconds := d.Seconds()
	if totalSeconds < 60 {
		return fmt.Sprintf("%.2fs", totalSeconds)
	}
	minutes := int(totalSeconds / 60)
	seconds := int(math.Round(totalSeconds - float64(minutes*60)))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// Tokens renders usage as input/output/reasoning/total.
func (u Usage) Tokens() string {
	return fmt.Sprintf("%d/%d/%d/%d", u.InputTokens, u.OutputTokens, u.ReasoningTokens, u.TotalTokens)
}
