package stats

// Confusion is a binary confusion matrix (positive = failure)
type Confusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Add records one prediction
func (c *Confusion) Add(predicted, actual bool) {
	switch {
	case predicted && actual:
		c.TP++
	case predicted && !actual:
		c.FP++
	case !predicted && actual:
		c.FN++
	default:
		c.TN++
	}
}

// Total returns the number of recorded predictions
func (c Confusion) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// Precision is TP/(TP+FP), 0 without predicted positives
func (c Confusion) Precision() float64 {
	return safeDiv(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), 0 without actual positives
func (c Confusion) Recall() float64 {
	return safeDiv(c.TP, c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// FalsePositiveRate is FP/(FP+TN), 0 without actual negatives
func (c Confusion) FalsePositiveRate() float64 {
	return safeDiv(c.FP, c.FP+c.TN)
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
