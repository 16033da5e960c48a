package rating

import "testing"

func TestFoldFirstRating(t *testing.T) {
	avg, count := Fold(0, 0, 4)
	if avg != 4.0 || count != 1 {
		t.Fatalf("Fold(0,0,4) = (%v,%d), want (4,1)", avg, count)
	}
}

func TestFoldRecencyWeightedSequence(t *testing.T) {
	// Ratings [4, 2] then 5: the pairwise fold yields 3.0 then 4.0, which is
	// not the arithmetic mean and must stay that way.
	avg, count := Fold(0, 0, 4)
	avg, count = Fold(avg, count, 2)
	if avg != 3.0 || count != 2 {
		t.Fatalf("after [4,2]: (%v,%d), want (3,2)", avg, count)
	}
	avg, count = Fold(avg, count, 5)
	if avg != 4.0 || count != 3 {
		t.Fatalf("after [4,2,5]: (%v,%d), want (4,3)", avg, count)
	}
}

func TestFoldCountMatchesSubmissions(t *testing.T) {
	ratings := []int{5, 1, 3, 2, 4, 4, 5, 1, 2, 3}
	var avg float64
	var count int64
	for _, r := range ratings {
		avg, count = Fold(avg, count, r)
	}
	if count != int64(len(ratings)) {
		t.Fatalf("count = %d, want %d", count, len(ratings))
	}
	if avg < Min || avg > Max {
		t.Fatalf("avg = %v, outside [%d,%d]", avg, Min, Max)
	}
}
