package auth

import (
	"net/http"
	"testing"
)

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		wantOK  bool
	}{
		{
			name:    "absent",
			headers: map[string]string{},
			wantOK:  false,
		},
		{
			name:    "raw authorization value",
			headers: map[string]string{"Authorization": "my-secret"},
			want:    "my-secret",
			wantOK:  true,
		},
		{
			name:    "bearer wrapper",
			headers: map[string]string{"Authorization": "Bearer my-secret"},
			want:    "my-secret",
			wantOK:  true,
		},
		{
			name:    "bearer wrapper case-insensitive",
			headers: map[string]string{"Authorization": "bearer my-secret"},
			want:    "my-secret",
			wantOK:  true,
		},
		{
			name:    "x-api-key fallback",
			headers: map[string]string{"X-Api-Key": "my-secret"},
			want:    "my-secret",
			wantOK:  true,
		},
		{
			name:    "authorization wins over x-api-key",
			headers: map[string]string{"Authorization": "primary", "X-Api-Key": "secondary"},
			want:    "primary",
			wantOK:  true,
		},
		{
			name:    "whitespace only is absent",
			headers: map[string]string{"Authorization": "   "},
			wantOK:  false,
		},
		{
			name:    "bare bearer prefix is absent",
			headers: map[string]string{"Authorization": "Bearer "},
			wantOK:  false,
		},
		{
			name:    "surrounding whitespace trimmed",
			headers: map[string]string{"Authorization": "  Bearer   my-secret  "},
			want:    "my-secret",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got, ok := ExtractCredential(h)
			if ok != tt.wantOK {
				t.Fatalf("ExtractCredential() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractCredential() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		secret    string
		want      bool
	}{
		{name: "equal", candidate: "secret", secret: "secret", want: true},
		{name: "different", candidate: "nope", secret: "secret", want: false},
		{name: "prefix", candidate: "secre", secret: "secret", want: false},
		{name: "empty secret never matches", candidate: "", secret: "", want: false},
		{name: "empty candidate against secret", candidate: "", secret: "secret", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.candidate, tt.secret); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.candidate, tt.secret, got, tt.want)
			}
		})
	}
}
