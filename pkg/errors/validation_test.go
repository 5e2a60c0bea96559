package errors

import (
	"testing"
)

func TestValidateGroupName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "front", false},
		{"valid with dash", "stage-1", false},
		{"valid with underscore", "stage_1", false},
		{"valid numeric", "0", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"with dot", "a.b", true},
		{"with slash", "a/b", true},
		{"with space", "a b", true},
		{"control char", "a\x01b", true},
		{"newline", "a\nb", true},
		{"leading dash", "-a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroupName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "add_1", false},
		{"valid numeric suffix", "mul_23", false},

		{"empty", "", true},
		{"with dash", "add-1", true},
		{"with dot", "a.b", true},
		{"with space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "out/graph.svg", false},
		{"valid absolute", "/tmp/graph.svg", false},
		{"valid simple", "graph.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 501)) + "x", true},
		{"path traversal", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x1bbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"dot", "svg", "json"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v, want nil", f, err)
		}
	}
	for _, f := range []string{"", "png", "pdf", "DOT"} {
		if err := ValidateFormat(f); err == nil {
			t.Errorf("ValidateFormat(%q) = nil, want error", f)
		}
		if f != "" && !Is(ValidateFormat(f), ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", f, GetCode(ValidateFormat(f)))
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"redis", "redis://localhost:6379/0", false},
		{"redis tls", "rediss://cache.example.com:6380", false},
		{"mongodb", "mongodb://localhost:27017", false},
		{"mongodb srv", "mongodb+srv://cluster.example.com", false},
		{"http", "http://localhost:8080", false},
		{"https", "https://example.com", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"bare host", "localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
