package analysis

import "sort"

// EvaluateAll scores every record independently, preserving input order.
func EvaluateAll(records []OperationRecord) []ScoredOperation {
	scored := make([]ScoredOperation, 0, len(records))
	for _, r := range records {
		res := Evaluate(r.CompletionDegree, r.ErrorCategories)
		scored = append(scored, ScoredOperation{
			OperationRecord: r,
			Score:           res.Score,
			Breakdown:       res.Breakdown,
		})
	}
	return scored
}

type dayKey struct {
	employee string
	date     Date
}

// scoreAccumulator sums scores per group key
type scoreAccumulator[K comparable] struct {
	sum   map[K]float64
	count map[K]int
}

func newScoreAccumulator[K comparable]() *scoreAccumulator[K] {
	return &scoreAccumulator[K]{sum: make(map[K]float64), count: make(map[K]int)}
}

func (a *scoreAccumulator[K]) Add(key K, score int) {
	a.sum[key] += float64(score)
	a.count[key]++
}

func (a *scoreAccumulator[K]) Mean(key K) float64 {
	return a.sum[key] / float64(a.count[key])
}

// DailyAverages groups scored operations by (employee, date) and averages
// each group. Rows are ordered by employee, then date ascending.
func DailyAverages(scored []ScoredOperation) []DailyEmployeeScore {
	acc := newScoreAccumulator[dayKey]()
	for _, s := range scored {
		acc.Add(dayKey{employee: s.EmployeeID, date: s.Date}, s.Score)
	}

	out := make([]DailyEmployeeScore, 0, len(acc.count))
	for k, n := range acc.count {
		out = append(out, DailyEmployeeScore{
			EmployeeID:   k.employee,
			Date:         k.date,
			AverageScore: acc.Mean(k),
			Operations:   n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// OverallAverages groups scored operations by employee and averages each
// group. Rows are ordered by employee.
func OverallAverages(scored []ScoredOperation) []OverallEmployeeScore {
	acc := newScoreAccumulator[string]()
	for _, s := range scored {
		acc.Add(s.EmployeeID, s.Score)
	}

	out := make([]OverallEmployeeScore, 0, len(acc.count))
	for employee, n := range acc.count {
		out = append(out, OverallEmployeeScore{
			EmployeeID:   employee,
			AverageScore: acc.Mean(employee),
			Operations:   n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// DailyFor returns one employee's daily rows sorted by date ascending.
func DailyFor(daily []DailyEmployeeScore, employee string) []DailyEmployeeScore {
	out := make([]DailyEmployeeScore, 0)
	for _, d := range daily {
		if d.EmployeeID == employee {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
