package pathutil

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		path    string
		wantDir string
		wantBase string
	}{
		{"/db/000012.sst", "/db", "000012.sst"},
		{"/db/", "/", "db"},
		{"/db", "/", "db"},
		{"/", "/", "/"},
		{"a.log", ".", "a.log"},
	}
	for _, tc := range cases {
		dir, base := Split(tc.path)
		if dir != tc.wantDir || base != tc.wantBase {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tc.path, dir, base, tc.wantDir, tc.wantBase)
		}
	}
}

func TestTrimTrailingSeparators(t *testing.T) {
	cases := map[string]string{
		"/db///": "/db",
		"/db":    "/db",
		"/":      "/",
		"":       "",
	}
	for in, want := range cases {
		if got := TrimTrailingSeparators(in); got != want {
			t.Errorf("TrimTrailingSeparators(%q) = %q, want %q", in, got, want)
		}
	}
}
