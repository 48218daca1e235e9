package timer

import (
	"strconv"
	"strings"
)

// DefaultMinutes is used whenever a duration cannot be resolved
const DefaultMinutes = 15

// Selection is the value of the duration selector: a number of minutes or
// SelectionRandom.
type Selection string

const SelectionRandom Selection = "Random"

// Selections lists the values offered by the duration selector
func Selections() []Selection {
	return []Selection{"1", "15", "30", "45", "60", "120", "180", SelectionRandom}
}

// DefaultRandomMinutes are the candidates drawn when the selector is Random
var DefaultRandomMinutes = []int{15, 30, 45, 60, 120, 180}

func (s Selection) IsRandom() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(SelectionRandom))
}

// Minutes resolves the selection. Random and unparseable or non-positive
// values resolve to DefaultMinutes.
func (s Selection) Minutes() int {
	if s.IsRandom() {
		return DefaultMinutes
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil || n <= 0 {
		return DefaultMinutes
	}
	return n
}

func (s Selection) Seconds() int {
	return s.Minutes() * 60
}

// SelectionFromMinutes turns a concrete duration back into a selector value
func SelectionFromMinutes(minutes int) Selection {
	return Selection(strconv.Itoa(minutes))
}
