package api

import "testing"

func TestPath(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, "/"},
		{[]string{"contacts"}, "/contacts"},
		{[]string{"/contacts/"}, "/contacts"},
		{[]string{"contacts", "c-1", "archive"}, "/contacts/c-1/archive"},
		{[]string{"teams", "t1", "members", "a+b@x.io"}, "/teams/t1/members/a+b@x.io"},
		{[]string{"contacts", "a/b"}, "/contacts/a%2Fb"},
		{[]string{"contacts", "", "x"}, "/contacts/x"},
		{[]string{"search", "two words"}, "/search/two%20words"},
	}

	for _, tt := range tests {
		if got := Path(tt.segments...); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}
