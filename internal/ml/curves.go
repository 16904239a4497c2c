package ml

import "sort"

// MaxCurvePoints bounds the stored length of every ROC and PR curve.
const MaxCurvePoints = 30

// ROCCurve is a one-vs-rest receiver operating characteristic.
type ROCCurve struct {
	FPR []float64 `json:"fpr"`
	TPR []float64 `json:"tpr"`
	AUC float64   `json:"auc"`
}

// PRCurve is a one-vs-rest precision/recall curve.
type PRCurve struct {
	Precision []float64 `json:"precision"`
	Recall    []float64 `json:"recall"`
	AUC       float64   `json:"auc"`
}

// oneVsRest computes both curves for scores against the binary truth
// positives. ok is false when the truth has no positives or no negatives.
// Thresholds are the distinct scores in descending order.
func oneVsRest(scores []float64, positives []bool) (roc ROCCurve, pr PRCurve, ok bool) {
	var pos, neg int
	for _, p := range positives {
		if p {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return roc, pr, false
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	fpr := []float64{0}
	tpr := []float64{0}
	precision := []float64{1}
	recall := []float64{0}

	var tp, fp int
	for i, idx := range order {
		if positives[idx] {
			tp++
		} else {
			fp++
		}
		if i+1 < len(order) && scores[order[i+1]] == scores[idx] {
			continue
		}
		fpr = append(fpr, float64(fp)/float64(neg))
		tpr = append(tpr, float64(tp)/float64(pos))
		precision = append(precision, float64(tp)/float64(tp+fp))
		recall = append(recall, float64(tp)/float64(pos))
	}

	roc = ROCCurve{AUC: trapezoid(fpr, tpr)}
	roc.FPR, roc.TPR = downsample(fpr, tpr, MaxCurvePoints)
	pr = PRCurve{AUC: trapezoid(recall, precision)}
	pr.Recall, pr.Precision = downsample(recall, precision, MaxCurvePoints)
	return roc, pr, true
}

// trapezoid integrates y over x with the trapezoidal rule.
func trapezoid(x, y []float64) float64 {
	var area float64
	for i := 1; i < len(x); i++ {
		area += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return area
}

// downsample keeps every ceil(n/limit)-th point of the paired series plus the
// final point.
func downsample(x, y []float64, limit int) ([]float64, []float64) {
	n := len(x)
	if n <= limit {
		return x, y
	}
	step := (n + limit - 1) / limit
	outX := make([]float64, 0, limit+1)
	outY := make([]float64, 0, limit+1)
	last := -1
	for i := 0; i < n; i += step {
		outX = append(outX, x[i])
		outY = append(outY, y[i])
		last = i
	}
	if last != n-1 {
		if len(outX) == limit {
			outX, outY = outX[:limit-1], outY[:limit-1]
		}
		outX = append(outX, x[n-1])
		outY = append(outY, y[n-1])
	}
	return outX, outY
}
