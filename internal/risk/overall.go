package risk

import (
	"math"
	"sort"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	LevelLow      = "Low"
	LevelMedium   = "Medium"
	LevelHigh     = "High"
	LevelCritical = "Critical"
)

// RPN is the risk priority number of one item.
func RPN(occurrence, severity, detection int) int {
	return occurrence * severity * detection
}

// ClampScore forces an O, S or D value into [1,10].
func ClampScore(v float64) int {
	switch {
	case math.IsNaN(v), v <= 1:
		return 1
	case v >= 10:
		return 10
	}
	return int(math.Round(v))
}

// Level maps an RPN onto a qualitative level.
func Level(rpn int) string {
	switch {
	case rpn < 100:
		return LevelLow
	case rpn < 300:
		return LevelMedium
	case rpn < 600:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Grade maps an RPN onto a letter from A (safest) to F.
func Grade(rpn int) string {
	switch {
	case rpn < 50:
		return "A"
	case rpn < 100:
		return "B"
	case rpn < 200:
		return "C"
	case rpn < 400:
		return "D"
	case rpn < 700:
		return "E"
	default:
		return "F"
	}
}

// OverallRisk weights the highest RPNs most (0.4, 0.3, 0.2, the remaining 0.1
// split evenly) and returns the weighted RPN as a 0..100 score with its level
// and grade.
func OverallRisk(items []models.RiskItem) (score float64, level, grade string) {
	if len(items) == 0 {
		return 0, LevelLow, "A"
	}

	rpns := make([]int, len(items))
	for i, it := range items {
		rpns[i] = it.RPN
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rpns)))

	var weighted float64
	if len(rpns) == 1 {
		weighted = float64(rpns[0])
	} else {
		weights := []float64{0.4, 0.3, 0.2}
		if rest := len(rpns) - 3; rest > 0 {
			for i := 0; i < rest; i++ {
				weights = append(weights, 0.1/float64(rest))
			}
		}
		for i, r := range rpns {
			weighted += float64(r) * weights[i]
		}
	}

	score = math.Round(weighted/1000*100*100) / 100
	return score, Level(int(weighted)), Grade(int(weighted))
}
