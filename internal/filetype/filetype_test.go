package filetype

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		want    Type
		wantOk  bool
	}{
		{"000012.log", WAL, true},
		{"000012.sst", Table, true},
		{"MANIFEST-000005", Manifest, true},
		{"CURRENT", Current, true},
		{"LOCK", Lock, true},
		{"IDENTITY", Identity, true},
		{"OPTIONS-000003", OptionsFile, true},
		{"000007.dbtmp", TempFile, true},
		{"notes.txt", Unknown, false},
		{"log", Unknown, false},
		{"abc.log", Unknown, false},
		{"MANIFEST-abc", Unknown, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.name)
		if got != tc.want || ok != tc.wantOk {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, %v)", tc.name, got, ok, tc.want, tc.wantOk)
		}
	}
}
