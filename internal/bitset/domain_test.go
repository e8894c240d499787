package bitset

import "testing"

func fromValues(size int, values ...int) ValueSet {
	vs := New(size)
	for _, v := range values {
		vs.Set(v)
	}
	return vs
}

func TestValueSet_SetSpansMultipleWords(t *testing.T) {
	vs := New(130)
	vs.Set(0)
	vs.Set(63)
	vs.Set(64)
	vs.Set(129)

	want := []int{0, 63, 64, 129}
	got := vs.Values()
	if len(got) != len(want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values() = %v, want %v", got, want)
		}
	}
}

func TestValueSet_FullMasksTailBits(t *testing.T) {
	vs := Full(5)
	if vs.PopCount() != 5 {
		t.Fatalf("PopCount() = %d, want 5", vs.PopCount())
	}
	if vs.Contains(5) || vs.Contains(63) {
		t.Fatalf("Full(5) must not contain values >= 5")
	}
}

func TestValueSet_UnionIntersectDifference(t *testing.T) {
	a := fromValues(8, 1, 2, 3)
	b := fromValues(8, 2, 3, 4)

	if got := a.Union(b).Values(); len(got) != 4 {
		t.Errorf("Union = %v, want 4 values", got)
	}
	if got := a.Intersect(b).Values(); !(len(got) == 2 && got[0] == 2 && got[1] == 3) {
		t.Errorf("Intersect = %v, want [2 3]", got)
	}
	if got := a.Difference(b).Values(); !(len(got) == 1 && got[0] == 1) {
		t.Errorf("Difference = %v, want [1]", got)
	}
	if got := a.SymmetricDifference(b).Values(); !(len(got) == 2 && got[0] == 1 && got[1] == 4) {
		t.Errorf("SymmetricDifference = %v, want [1 4]", got)
	}
}

func TestValueSet_SubsetAndEqual(t *testing.T) {
	a := fromValues(8, 1, 2)
	b := fromValues(8, 1, 2, 3)

	if !a.IsSubsetOf(b) {
		t.Errorf("expected a to be a subset of b")
	}
	if b.IsSubsetOf(a) {
		t.Errorf("did not expect b to be a subset of a")
	}
	if a.Equal(b) {
		t.Errorf("did not expect a to equal b")
	}
	if !a.Equal(fromValues(8, 2, 1)) {
		t.Errorf("expected insertion order to not matter")
	}
}

func TestValueSet_MinMaxEmpty(t *testing.T) {
	vs := New(10)
	if _, ok := vs.Min(); ok {
		t.Errorf("Min() of empty set should report ok=false")
	}
	if _, ok := vs.Max(); ok {
		t.Errorf("Max() of empty set should report ok=false")
	}
}

func TestValueSet_MinMax(t *testing.T) {
	vs := fromValues(200, 5, 64, 199)
	if min, _ := vs.Min(); min != 5 {
		t.Errorf("Min() = %d, want 5", min)
	}
	if max, _ := vs.Max(); max != 199 {
		t.Errorf("Max() = %d, want 199", max)
	}
}

func TestValueSet_Complement(t *testing.T) {
	vs := fromValues(4, 0, 2)
	comp := vs.Complement()
	want := fromValues(4, 1, 3)
	if !comp.Equal(want) {
		t.Errorf("Complement() = %v, want %v", comp.Values(), want.Values())
	}
}

func TestValueSet_CloneIsIndependent(t *testing.T) {
	a := fromValues(8, 1)
	b := a.Clone()
	b.Set(2)
	if a.Contains(2) {
		t.Errorf("mutating the clone must not affect the original")
	}
}
