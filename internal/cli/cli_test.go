package cli

import (
	"io"
	"testing"
)

func TestParseFormats(t *testing.T) {
	got := parseFormats("")
	if len(got) != 1 || got[0] != "dot" {
		t.Errorf("parseFormats(\"\") = %v, want [dot]", got)
	}

	got = parseFormats("dot,svg,json")
	if len(got) != 3 || got[2] != "json" {
		t.Errorf("parseFormats = %v", got)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input, format, want string
	}{
		{"", "model.json", "dot", "model.dot"},
		{"", "dir/model.json", "svg", "dir/model.svg"},
		{"out", "model.json", "dot", "out.dot"},
		{"out.svg", "model.json", "svg", "out.svg"},
		{"out.svg", "model.json", "dot", "out.dot"},
		{"archive.tar", "model.json", "dot", "archive.tar.dot"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q",
				tt.output, tt.input, tt.format, got, tt.want)
		}
	}
}

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{"3", "4.5", "-2"})
	if err != nil {
		t.Fatalf("parseInputs: %v", err)
	}
	if len(inputs) != 3 || inputs[1] != 4.5 {
		t.Errorf("unexpected inputs: %v", inputs)
	}

	if _, err := parseInputs([]string{"abc"}); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"split": false, "render": false, "run": false,
		"serve": false, "cache": false, "completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}
