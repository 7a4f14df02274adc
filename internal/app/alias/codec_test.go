package alias

import "testing"

func TestComputeAlias_KnownVectors(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://www.google.com", "bJd4bYF"},
		{"https://jasonwatmore.com/post/2019/11/21/angular-http-post-request-examples", "3ZlbRMf"},
		{"https://example.com", "1wBqbv"},
		{"", "22fIUM5"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ComputeAlias(tt.url); got != tt.want {
				t.Fatalf("ComputeAlias(%q): got %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestComputeAlias_Deterministic(t *testing.T) {
	const url = "https://example.com/some/long/path?q=1"
	first := ComputeAlias(url)
	for i := 0; i < 100; i++ {
		if got := ComputeAlias(url); got != first {
			t.Fatalf("call %d: got %q, want %q", i, got, first)
		}
	}
	if err := ValidateAlias(first); err != nil {
		t.Fatalf("computed alias %q does not validate: %v", first, err)
	}
}

func TestComputeAlias_ByteSensitive(t *testing.T) {
	if ComputeAlias("http://www.google.com") == ComputeAlias("http://www.google.com/") {
		t.Fatal("trailing slash should change the alias")
	}
}

func TestEncodeBase62(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, ""},
		{1, "1"},
		{10, "a"},
		{36, "A"},
		{61, "Z"},
		{62, "10"},
		{3843, "ZZ"},
		{666221660589, "bJd4bYF"},
		{999_999_999_999, "hBxM5A3"},
	}
	for _, tt := range tests {
		if got := EncodeBase62(tt.n); got != tt.want {
			t.Errorf("EncodeBase62(%d): got %q, want %q", tt.n, got, tt.want)
		}
	}
}
