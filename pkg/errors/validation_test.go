package errors

import (
	"strings"
	"testing"
)

func TestValidateVertexID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid simple", "dev-1", false},
		{"valid with dots", "eu-west.cluster.db-01", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 257), true},
		{"control character", "dev\x01", true},
		{"null byte", "dev\x00", true},
		{"unicode ok", "réseau-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVertexID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVertexID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInput {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "out/layout.json", false},
		{"valid absolute", "/tmp/layout.json", false},
		{"empty", "", true},
		{"traversal", "../secrets", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
