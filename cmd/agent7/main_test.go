package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseTaskID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTaskID(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseTaskID(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestTerminalPrompterConfirm(t *testing.T) {
	tests := []struct {
		name  string
		yes   bool
		input string
		want  bool
	}{
		{"assume yes", true, "", true},
		{"y", false, "y\n", true},
		{"yes mixed case", false, "YES\n", true},
		{"no", false, "n\n", false},
		{"empty line", false, "\n", false},
		{"eof", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &terminalPrompter{yes: tt.yes, in: bufio.NewReader(strings.NewReader(tt.input)), out: &out}
			if got := p.Confirm(context.Background(), "Delete task?"); got != tt.want {
				t.Errorf("Confirm = %v, want %v", got, tt.want)
			}
			if !tt.yes && !strings.Contains(out.String(), "Delete task? [y/N]") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestTerminalPrompterAlert(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{out: &out}
	p.Alert("Please select a project first")
	if got := out.String(); got != "⚠️  Please select a project first\n" {
		t.Errorf("Alert wrote %q", got)
	}
}
