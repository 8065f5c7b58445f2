package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetValidator(t *testing.T) {
	require.Same(t, GetValidator(), GetValidator())
}

func TestWebURLValidation(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"empty string", "", true},
		{"space", " ", false},
		{"valid https", "https://docs.example.com/guide", true},
		{"valid http with port", "http://localhost:3000", true},
		{"no host", "https:///path", false},
		{"empty host", "http://", false},
		{"ftp scheme", "ftp://example.com", false},
		{"relative", "/api/vibe", false},
		{"padded", " https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.url, "web_url")
			require.Equal(t, tt.expected, err == nil, "web_url(%q): %v", tt.url, err)
		})
	}
}

func TestListenAddrValidation(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		addr     string
		expected bool
	}{
		{":8080", true},
		{"127.0.0.1:3000", true},
		{"localhost:0", true},
		{"8080", false},
		{"host:", false},
		{":99999", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := v.Var(tt.addr, "listen_addr")
			require.Equal(t, tt.expected, err == nil, "listen_addr(%q): %v", tt.addr, err)
		})
	}
}

func TestQueryParamValidation(t *testing.T) {
	v := GetValidator()

	require.NoError(t, v.Var("vibe", "query_param"))
	require.NoError(t, v.Var("theme_2", "query_param"))
	require.Error(t, v.Var("", "query_param"))
	require.Error(t, v.Var("vibe name", "query_param"))
	require.Error(t, v.Var("a&b", "query_param"))
}

func TestIsValidFilePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"root absolute", "/", true},
		{"simple absolute", "/tmp/vibe.json", true},
		{"home relative", "~/.chameleon/vibe.json", true},
		{"relative file", "./vibe.json", true},
		{"parent file", "../state/vibe.db", true},
		{"sqlite memory", ":memory:", true},

		{"empty", "", false},
		{"no prefix", "vibe.json", false},
		{"bare tilde user", "~bob/vibe.json", false},
		{"nul char", "/tmp\x00file", false},
		{"path traversal absolute", "/etc/../usr/share", false},
		{"path traversal suffix", "/tmp/..", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, isValidFilePath(tt.path), "isValidFilePath(%q)", tt.path)
		})
	}
}
