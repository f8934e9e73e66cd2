package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// TopNPerGroup keeps the first n items of each group under less. Items are
// returned per group in ranked order.
func TopNPerGroup[T any, K comparable](items []T, n int, group func(T) K, less func(a, b T) bool) map[K][]T {
	groups := make(map[K][]T)
	for _, it := range items {
		k := group(it)
		groups[k] = append(groups[k], it)
	}
	for k, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return less(g[i], g[j]) })
		if len(g) > n {
			g = g[:n]
		}
		groups[k] = g
	}
	return groups
}

type Revenue struct {
	ID     int64
	Amount decimal.Decimal
}

type ABCClass struct {
	ID                int64
	Amount            decimal.Decimal
	CumulativePercent decimal.Decimal
	Class             string
}

var (
	hundred = decimal.NewFromInt(100)
	classA  = decimal.NewFromInt(80)
	classB  = decimal.NewFromInt(95)
)

// ClassifyABC ranks positive amounts in descending order (ties by id) and
// assigns A while the running share is at most 80%, B up to 95%, C beyond.
func ClassifyABC(revenues []Revenue) []ABCClass {
	ranked := make([]Revenue, 0, len(revenues))
	total := decimal.Zero
	for _, r := range revenues {
		if r.Amount.IsPositive() {
			ranked = append(ranked, r)
			total = total.Add(r.Amount)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Amount.Cmp(ranked[j].Amount); c != 0 {
			return c > 0
		}
		return ranked[i].ID < ranked[j].ID
	})

	out := make([]ABCClass, 0, len(ranked))
	running := decimal.Zero
	for _, r := range ranked {
		running = running.Add(r.Amount)
		pct := running.Div(total).Mul(hundred)
		class := "C"
		switch {
		case pct.LessThanOrEqual(classA):
			class = "A"
		case pct.LessThanOrEqual(classB):
			class = "B"
		}
		out = append(out, ABCClass{ID: r.ID, Amount: r.Amount, CumulativePercent: pct.Round(2), Class: class})
	}
	return out
}

type Outlier struct {
	Index int
	Value float64
	Z     float64
}

// ZScoreOutliers returns the values whose distance from the mean exceeds
// threshold sample standard deviations, in input order. Fewer than two
// values, or no spread at all, yields nothing.
func ZScoreOutliers(values []float64, threshold float64) []Outlier {
	if len(values) < 2 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(values)-1))
	if stddev == 0 {
		return nil
	}

	var out []Outlier
	for i, v := range values {
		z := (v - mean) / stddev
		if math.Abs(z) > threshold {
			out = append(out, Outlier{Index: i, Value: v, Z: z})
		}
	}
	return out
}

func RunningTotals(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	acc := decimal.Zero
	for i, v := range values {
		acc = acc.Add(v)
		out[i] = acc
	}
	return out
}
