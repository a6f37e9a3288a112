package course

import "testing"

func TestMakeSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Getting Started with Go", "getting-started-with-go"},
		{"  Trailing Spaces  ", "trailing-spaces"},
		{"Urdu 101: Basics!", "urdu-101-basics"},
		{"Multiple---Dashes", "multiple-dashes"},
		{"UPPER case", "upper-case"},
		{"!!!", ""},
	}

	for _, tc := range cases {
		if got := makeSlug(tc.in); got != tc.want {
			t.Errorf("makeSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
