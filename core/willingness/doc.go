// Package willingness fits a continuous distribution to the discretised
// survey answers about tolerable switch-off duration. The fitted survival
// function gives a smooth P(duration >= x) when only aggregate survey
// statistics are at hand.
package willingness
