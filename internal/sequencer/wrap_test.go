package sequencer

import "testing"

func TestWrap(t *testing.T) {
	cases := []struct {
		t, c, want int
	}{
		{5, 80, 5},
		{80, 80, 0},
		{-1, 80, 79},
		{-81, 80, 79},
		{160, 80, 0},
	}
	for _, c := range cases {
		if got := Wrap(c.t, c.c); got != c.want {
			t.Errorf("Wrap(%d,%d) = %d, want %d", c.t, c.c, got, c.want)
		}
	}
}

func TestWrapZeroCycle(t *testing.T) {
	if got := Wrap(5, 0); got != 0 {
		t.Errorf("Wrap(5,0) = %d, want 0", got)
	}
}
