package pagination

import (
	"net/http"
	"testing"
)

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected string
		found    bool
	}{
		{
			name:  "no header",
			found: false,
		},
		{
			name:     "next and last",
			headers:  []string{`<https://api.github.com/repos/owner/repo/issues?page=2>; rel="next", <https://api.github.com/repos/owner/repo/issues?page=5>; rel="last"`},
			expected: "https://api.github.com/repos/owner/repo/issues?page=2",
			found:    true,
		},
		{
			name:     "next only",
			headers:  []string{`<https://api.github.com/repos/owner/repo/issues?page=3>; rel="next"`},
			expected: "https://api.github.com/repos/owner/repo/issues?page=3",
			found:    true,
		},
		{
			name:     "all four relations",
			headers:  []string{`<https://api.github.com/repos/owner/repo/issues?page=1>; rel="prev", <https://api.github.com/repos/owner/repo/issues?page=3>; rel="next", <https://api.github.com/repos/owner/repo/issues?page=5>; rel="last", <https://api.github.com/repos/owner/repo/issues?page=1>; rel="first"`},
			expected: "https://api.github.com/repos/owner/repo/issues?page=3",
			found:    true,
		},
		{
			name:     "query parameters preserved",
			headers:  []string{`<https://api.github.com/repos/owner/repo/issues?state=open&per_page=30&page=2>; rel="next"`},
			expected: "https://api.github.com/repos/owner/repo/issues?state=open&per_page=30&page=2",
			found:    true,
		},
		{
			name:    "last page has only prev and first",
			headers: []string{`<https://api.github.com/repos/owner/repo/issues?page=4>; rel="prev", <https://api.github.com/repos/owner/repo/issues?page=1>; rel="first"`},
			found:   false,
		},
		{
			name:     "unquoted rel",
			headers:  []string{`<https://api.github.com/x?page=2>; rel=next`},
			expected: "https://api.github.com/x?page=2",
			found:    true,
		},
		{
			name:     "multiple relation types",
			headers:  []string{`<https://api.github.com/x?page=2>; rel="next last"`},
			expected: "https://api.github.com/x?page=2",
			found:    true,
		},
		{
			name:     "extra parameters before rel",
			headers:  []string{`<https://api.github.com/x?page=2>; title="two"; rel="next"`},
			expected: "https://api.github.com/x?page=2",
			found:    true,
		},
		{
			name:     "split across header lines",
			headers:  []string{`<https://api.github.com/x?page=1>; rel="prev"`, `<https://api.github.com/x?page=3>; rel="next"`},
			expected: "https://api.github.com/x?page=3",
			found:    true,
		},
		{
			name:     "comma inside next target",
			headers:  []string{`<https://api.github.com/repos/o/r/issues?labels=bug,ui&page=2>; rel="next", <https://api.github.com/repos/o/r/issues?labels=bug,ui&page=4>; rel="last"`},
			expected: "https://api.github.com/repos/o/r/issues?labels=bug,ui&page=2",
			found:    true,
		},
		{
			name:     "comma inside earlier target",
			headers:  []string{`<https://api.github.com/x?labels=a,b&page=1>; rel="prev", <https://api.github.com/x?labels=a,b&page=3>; rel="next"`},
			expected: "https://api.github.com/x?labels=a,b&page=3",
			found:    true,
		},
		{
			name:     "comma inside quoted parameter",
			headers:  []string{`<https://api.github.com/x?page=1>; title="one, first"; rel="prev", <https://api.github.com/x?page=2>; rel="next"`},
			expected: "https://api.github.com/x?page=2",
			found:    true,
		},
		{
			name:    "unterminated target",
			headers: []string{`<https://api.github.com/x?page=2; rel="next"`},
			found:   false,
		},
		{
			name:    "missing angle brackets",
			headers: []string{`https://api.github.com/x?page=2; rel="next"`},
			found:   false,
		},
		{
			name:    "nextfoo is not next",
			headers: []string{`<https://api.github.com/x?page=2>; rel="nextfoo"`},
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for _, h := range tt.headers {
				headers.Add("Link", h)
			}

			got, found := parseLinkNext(headers)
			if found != tt.found {
				t.Fatalf("parseLinkNext() found = %v, want %v", found, tt.found)
			}
			if got != tt.expected {
				t.Errorf("parseLinkNext() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidateNext(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		wantErr bool
	}{
		{name: "absolute https", link: "https://api.github.com/x?page=2", wantErr: false},
		{name: "absolute http with port", link: "http://127.0.0.1:8080/x?page=2", wantErr: false},
		{name: "relative path", link: "/x?page=2", wantErr: true},
		{name: "scheme without host", link: "mailto:someone", wantErr: true},
		{name: "unparsable", link: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNext(tt.link)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNext(%q) error = %v, wantErr %v", tt.link, err, tt.wantErr)
			}
		})
	}
}
