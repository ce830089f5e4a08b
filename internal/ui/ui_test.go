package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Continue?")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.HasPrefix(out.String(), "Continue? [y/N]: ") {
			t.Errorf("unexpected prompt %q", out.String())
		}
	}
}

func TestDownloadSummary(t *testing.T) {
	tests := []struct {
		files int
		total int64
		want  string
	}{
		{1, 1500, "1 file, 1.5 kB total"},
		{3, 2000000, "3 files, 2.0 MB total"},
		{2, -1, "2 files of unknown size"},
	}
	for _, tt := range tests {
		if got := DownloadSummary(tt.files, tt.total); got != tt.want {
			t.Errorf("DownloadSummary(%d, %d) = %q, want %q", tt.files, tt.total, got, tt.want)
		}
	}
}

func TestNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) || ColorEnabled(&buf) {
		t.Error("a buffer is not a terminal")
	}

	s := NewSpinnerTo(&buf, "Resolving")
	s.Start()
	s.Stop("done")
	if got := buf.String(); got != "Resolving...\ndone\n" {
		t.Errorf("unexpected spinner output %q", got)
	}
}
