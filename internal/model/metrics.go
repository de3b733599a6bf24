package model

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ClassLabels names the outcome classes in report order.
var ClassLabels = [2]string{"Retained", "Churned"}

// Evaluation is a model's held-out performance. Churned is the positive class.
type Evaluation struct {
	Model     string          `json:"model"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	ROCAUC    float64         `json:"roc_auc"`
	Confusion ConfusionMatrix `json:"confusion"`
	Report    Report          `json:"report"`
}

// ConfusionMatrix is indexed [actual][predicted].
type ConfusionMatrix [2][2]int

func (c ConfusionMatrix) TP() int { return c[1][1] }
func (c ConfusionMatrix) FP() int { return c[0][1] }
func (c ConfusionMatrix) FN() int { return c[1][0] }
func (c ConfusionMatrix) TN() int { return c[0][0] }

// ClassScore is one row of a classification report.
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Report struct {
	Classes  [2]ClassScore `json:"classes"`
	Accuracy float64       `json:"accuracy"`
	Macro    ClassScore    `json:"macro_avg"`
	Weighted ClassScore    `json:"weighted_avg"`
}

// Evaluate scores predictions against yTrue. A zero denominator yields 0.
// ROC-AUC is NaN when yTrue holds a single class.
func Evaluate(name string, yTrue, pred []int, prob []float64) Evaluation {
	var cm ConfusionMatrix
	for i, y := range yTrue {
		cm[y][pred[i]]++
	}
	e := Evaluation{Model: name, Confusion: cm}
	n := len(yTrue)
	if n > 0 {
		e.Accuracy = float64(cm.TP()+cm.TN()) / float64(n)
	}
	e.Precision = safeDiv(cm.TP(), cm.TP()+cm.FP())
	e.Recall = safeDiv(cm.TP(), cm.TP()+cm.FN())
	e.F1 = f1(e.Precision, e.Recall)
	e.ROCAUC = ROCAUC(yTrue, prob)
	e.Report = report(cm, e.Accuracy)
	return e
}

func report(cm ConfusionMatrix, acc float64) Report {
	r := Report{Accuracy: acc}
	total := 0
	for c := 0; c < 2; c++ {
		tp := cm[c][c]
		predicted := cm[0][c] + cm[1][c]
		support := cm[c][0] + cm[c][1]
		p := safeDiv(tp, predicted)
		rc := safeDiv(tp, support)
		r.Classes[c] = ClassScore{Label: ClassLabels[c], Precision: p, Recall: rc, F1: f1(p, rc), Support: support}
		total += support
	}
	r.Macro = ClassScore{Label: "macro avg", Support: total}
	r.Weighted = ClassScore{Label: "weighted avg", Support: total}
	for _, s := range r.Classes {
		r.Macro.Precision += s.Precision / 2
		r.Macro.Recall += s.Recall / 2
		r.Macro.F1 += s.F1 / 2
		if total > 0 {
			w := float64(s.Support) / float64(total)
			r.Weighted.Precision += w * s.Precision
			r.Weighted.Recall += w * s.Recall
			r.Weighted.F1 += w * s.F1
		}
	}
	return r
}

// ROCAUC is the area under the ROC curve of prob against the 0/1 labels.
func ROCAUC(yTrue []int, prob []float64) float64 {
	scores := append([]float64(nil), prob...)
	classes := make([]bool, len(yTrue))
	var pos, neg int
	for i, y := range yTrue {
		classes[i] = y == 1
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Best returns the evaluation with the highest ROC-AUC; earlier entries win ties.
func Best(evals []Evaluation) (Evaluation, bool) {
	var best Evaluation
	found := false
	for _, e := range evals {
		if math.IsNaN(e.ROCAUC) {
			continue
		}
		if !found || e.ROCAUC > best.ROCAUC {
			best, found = e, true
		}
	}
	return best, found
}
