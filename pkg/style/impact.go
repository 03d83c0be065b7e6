package style

import (
	"strconv"

	"github.com/fatih/color"
)

var ExplosiveEmoji = "💥"

var (
	StableColor    = color.New(color.FgGreen)
	CriticalColor  = color.New(color.FgYellow)
	ExplosiveColor = color.New(color.FgRed, color.Bold)
	FailureColor   = color.New(color.FgHiBlack)
)

// criticalMargin is how close to 1 a branching factor counts as near critical
const criticalMargin = 0.05

// BranchingColor picks the color of a branching factor by regime.
func BranchingColor(n float64) *color.Color {
	switch {
	case n != n:
		return FailureColor
	case n > 1:
		return ExplosiveColor
	case n > 1-criticalMargin:
		return CriticalColor
	}
	return StableColor
}

// BranchingString formats a branching factor with its regime color, explosive
// values are marked with ExplosiveEmoji.
func BranchingString(n float64) string {
	s := strconv.FormatFloat(n, 'f', 4, 64)
	if n > 1 {
		s += " " + ExplosiveEmoji
	}
	return BranchingColor(n).Sprint(s)
}
