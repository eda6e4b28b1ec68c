package nl2sql

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced block after comment",
			in:   "-- note\n```sql\nSELECT * FROM Artist;\n```",
			want: "SELECT * FROM Artist;",
		},
		{
			name: "fenced block wins over earlier select",
			in:   "You could run SELECT 1; but better:\n```sql\nSELECT Name FROM Artist LIMIT 5;\n```\nDone.",
			want: "SELECT Name FROM Artist LIMIT 5;",
		},
		{
			name: "multi-line fenced block",
			in:   "```SQL\nSELECT a.Title\nFROM Album a\nLIMIT 10;\n```",
			want: "SELECT a.Title\nFROM Album a\nLIMIT 10;",
		},
		{
			name: "bare select",
			in:   "SELECT Name FROM Artist;",
			want: "SELECT Name FROM Artist;",
		},
		{
			name: "select spans lines case-insensitively",
			in:   "Try this:\nselect Name\nfrom Artist\nwhere ArtistId = 1; it works",
			want: "select Name\nfrom Artist\nwhere ArtistId = 1;",
		},
		{
			name: "fallback trims",
			in:   "  I cannot answer that.\n",
			want: "I cannot answer that.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Extract(tc.in); got != tc.want {
				t.Fatalf("Extract() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	for _, in := range []string{
		"SELECT Name FROM Artist;",
		"```sql\nSELECT 1;\n```",
		"  no sql here  ",
		"PRAGMA table_info(Artist)",
	} {
		once := Extract(in)
		if twice := Extract(once); twice != once {
			t.Fatalf("Extract(Extract(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestExtractReportsFallback(t *testing.T) {
	if _, fallback := extract("SELECT 1;"); fallback {
		t.Fatal("fallback = true for SELECT statement")
	}
	if _, fallback := extract("just words"); !fallback {
		t.Fatal("fallback = false for prose")
	}
}
