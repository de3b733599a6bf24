package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"hotel_churn/internal/domain"
)

// Split is one stratified train/test partition of a feature matrix.
type Split struct {
	TrainIdx, TestIdx []int
	XTrain, XTest     [][]float64
	YTrain, YTest     []int
}

// StratifiedSplit partitions row indices so that each class keeps its share in
// both parts. The test part has ceil(testFrac*n) rows. Every class needs at
// least two members.
func StratifiedSplit(y []int, testFrac float64, seed int64) (train, test []int, err error) {
	n := len(y)
	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, fmt.Errorf("test fraction %v outside (0,1)", testFrac)
	}
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("stratified split: %w", domain.ErrSingleClass)
	}
	for _, c := range classes {
		if len(byClass[c]) < 2 {
			return nil, nil, fmt.Errorf("stratified split: class %d has %d member(s): %w",
				c, len(byClass[c]), domain.ErrTooFewMembers)
		}
	}

	nTest := int(math.Ceil(testFrac * float64(n)))
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("stratified split: %d rows cannot hold %d classes in both parts: %w",
			n, len(classes), domain.ErrTooFewMembers)
	}
	alloc := allocate(classes, byClass, nTest, n)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		members := byClass[c]
		perm := rng.Perm(len(members))
		for k, p := range perm {
			if k < alloc[c] {
				test = append(test, members[p])
			} else {
				train = append(train, members[p])
			}
		}
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

// allocate spreads nTest over the classes proportionally, largest remainders
// first, keeping at least one row of each class on both sides. The caller
// guarantees classes <= nTest <= n-classes.
func allocate(classes []int, byClass map[int][]int, nTest, n int) map[int]int {
	alloc := make(map[int]int, len(classes))
	type rem struct {
		class int
		frac  float64
	}
	rems := make([]rem, 0, len(classes))
	given := 0
	for _, c := range classes {
		exact := float64(len(byClass[c])) * float64(nTest) / float64(n)
		alloc[c] = int(math.Floor(exact))
		given += alloc[c]
		rems = append(rems, rem{c, exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for k := 0; given < nTest; k++ {
		c := rems[k%len(rems)].class
		if alloc[c] < len(byClass[c])-1 {
			alloc[c]++
			given++
		}
	}
	// A class rounded down to zero borrows its test row from the largest
	// allocation, so the total stays nTest.
	for _, c := range classes {
		if alloc[c] > 0 {
			continue
		}
		alloc[c] = 1
		donor := -1
		for _, d := range classes {
			if d != c && alloc[d] > 1 && (donor < 0 || alloc[d] > alloc[donor]) {
				donor = d
			}
		}
		alloc[donor]--
	}
	return alloc
}

// Apply materialises the split against X and y.
func Apply(X [][]float64, y []int, train, test []int) Split {
	s := Split{TrainIdx: train, TestIdx: test}
	s.XTrain, s.YTrain = pick(X, y, train)
	s.XTest, s.YTest = pick(X, y, test)
	return s
}

func pick(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}

// BalancedWeights returns n / (classes * count(class)) per sample.
func BalancedWeights(y []int) []float64 {
	counts := map[int]int{}
	for _, c := range y {
		counts[c]++
	}
	w := make([]float64, len(y))
	k := float64(len(counts))
	for i, c := range y {
		w[i] = float64(len(y)) / (k * float64(counts[c]))
	}
	return w
}
