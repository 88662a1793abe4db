package validation

import (
	"strings"
	"testing"

	"github.com/cpressland/playlist/config"
)

func TestValidateSearchTerm(t *testing.T) {
	validator := NewValidator(&config.Config{})

	tests := []struct {
		name    string
		term    string
		wantErr bool
	}{
		{
			name:    "Empty term",
			term:    "",
			wantErr: true,
		},
		{
			name:    "Whitespace only",
			term:    "   ",
			wantErr: true,
		},
		{
			name:    "Simple term",
			term:    "never gonna give you up",
			wantErr: false,
		},
		{
			name:    "Direct URL",
			term:    "https://youtu.be/dQw4w9WgXcQ",
			wantErr: false,
		},
		{
			name:    "Control characters",
			term:    "rick\x00roll",
			wantErr: true,
		},
		{
			name:    "Too long",
			term:    strings.Repeat("a", 201),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateSearchTerm(tt.term)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSearchTerm() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVideoID(t *testing.T) {
	validator := NewValidator(&config.Config{})

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "Empty ID",
			id:      "",
			wantErr: true,
		},
		{
			name:    "Valid YouTube ID",
			id:      "dQw4w9WgXcQ",
			wantErr: false,
		},
		{
			name:    "Valid with underscore and dash",
			id:      "a-b_c123",
			wantErr: false,
		},
		{
			name:    "Path traversal",
			id:      "../etc/passwd",
			wantErr: true,
		},
		{
			name:    "Contains space",
			id:      "dQw4 w9WgXcQ",
			wantErr: true,
		},
		{
			name:    "Too long",
			id:      strings.Repeat("a", 65),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVideoID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVideoID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
