package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid numeric", "01", false},
		{"valid alnum", "NDARINV1234ABCD", false},
		{"valid task", "task-rest01", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"slash", "sub/01", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"space", "a b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier("participant label", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSubdir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "summary_DCANBOLDProc_v4.0.0", false},
		{"nested", "derivatives/summary", false},

		{"empty", "", true},
		{"absolute", "/tmp/summary", true},
		{"traversal", "../summary", true},
		{"backslash", "a\\b", true},
		{"control", "a\x01b", true},
		{"too long", strings.Repeat("a", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubdir(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubdir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateSubdir(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestIsUnset(t *testing.T) {
	for _, v := range []string{"", "NONE", "none", "None"} {
		if !IsUnset(v) {
			t.Errorf("IsUnset(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"01", "nonexistent", "/data/func"} {
		if IsUnset(v) {
			t.Errorf("IsUnset(%q) = true, want false", v)
		}
	}
}
