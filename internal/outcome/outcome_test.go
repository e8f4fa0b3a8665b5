package outcome

import "testing"

func TestString(t *testing.T) {
	cases := []struct {
		o    Outcome
		want string
	}{
		{Done, "done"},
		{Retry, "retry"},
		{Err, "error"},
		{Outcome(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.o.String(); got != c.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", c.o, got, c.want)
		}
	}
}
