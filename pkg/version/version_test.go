package version

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input     string
		want      Version
		expectErr error
	}{
		{"1", Version{Major: 1, Precision: 1}, nil},
		{"v2", Version{Major: 2, Precision: 1}, nil},
		{"1.28", Version{Major: 1, Minor: 28, Precision: 2}, nil},
		{"v1.28.3", Version{Major: 1, Minor: 28, Patch: 3, Precision: 3}, nil},
		{"1.28.3-eks-3025e55", Version{Major: 1, Minor: 28, Patch: 3, Precision: 3, Extras: "-eks-3025e55"}, nil},
		{"1.28.0-gke.1337000", Version{Major: 1, Minor: 28, Patch: 0, Precision: 3, Extras: "-gke.1337000"}, nil},
		{"1.2.3+build.7", Version{Major: 1, Minor: 2, Patch: 3, Precision: 3, Extras: "+build.7"}, nil},
		{"", Version{}, ErrEmptyVersion},
		{"1.2.3.4", Version{}, ErrTooManyComponents},
		{"1.x.3", Version{}, ErrNonNumeric},
		{"1..3", Version{}, ErrNonNumeric},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseVersion(tc.input)
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{Version{Major: 1, Precision: 1}, "1"},
		{Version{Major: 1, Minor: 28, Precision: 2}, "1.28"},
		{NewVersion(1, 28, 3), "1.28.3"},
	}
	for _, tc := range tests {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.28.3", "1.27.0", 1},
		{"1.27.0", "1.28.3", -1},
		{"1.28.3", "1.28.3", 0},
		{"1.28", "1.28.9", 0},  // minor precision wins
		{"2", "1.99.99", 1},    // major precision wins
		{"1.28.3-eks-3025e55", "1.28.3", 0}, // extras ignored
	}

	for _, tc := range tests {
		a, err := ParseVersion(tc.a)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.a, err)
		}
		b, err := ParseVersion(tc.b)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.b, err)
		}
		if got := a.Compare(b); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func FuzzParseVersion(f *testing.F) {
	for _, seed := range []string{"1", "v1.2", "1.2.3", "1.28.3-eks-3025e55", "", "1.2.3.4"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		v, err := ParseVersion(s)
		if err != nil {
			return
		}
		if v.Precision < 1 || v.Precision > 3 {
			t.Errorf("parsed precision out of range: %+v", v)
		}
		// Round-trip of the numeric part must reparse cleanly.
		if _, err := ParseVersion(v.String()); err != nil {
			t.Errorf("String() %q does not reparse: %v", v.String(), err)
		}
	})
}
