package services

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildRawMessage(t *testing.T) {
	raw := buildRawMessage("recruiter@example.com", "Hello about the Go role", "Short body.")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not valid base64url: %v", err)
	}
	msg := string(decoded)

	if !strings.HasPrefix(msg, "To: recruiter@example.com\r\n") {
		t.Fatalf("missing To header: %q", msg)
	}
	if !strings.Contains(msg, "Subject: Hello about the Go role\r\n") {
		t.Fatalf("missing Subject header: %q", msg)
	}
	// Headers and body must be separated by a blank line.
	if !strings.Contains(msg, "\r\n\r\nShort body.") {
		t.Fatalf("missing header/body separator: %q", msg)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.in); got != tc.want {
				t.Fatalf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
