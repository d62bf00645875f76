package parser

import (
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "127.0.0.1", want: "127.0.0.1"},
		{input: " 192.168.1.20\n", want: "192.168.1.20"},
		{input: "10.0.0.255", want: "10.0.0.255"},
		{input: "not-an-ip", wantErr: true},
		{input: "", wantErr: true},
		{input: "256.1.1.1", wantErr: true},
		{input: "10.0.0.0/24", wantErr: true},
		{input: "::1", wantErr: true},
		{input: "::ffff:10.0.0.1", wantErr: true},
		{input: "0.0.0.0", wantErr: true},
		{input: "255.255.255.255", wantErr: true},
		{input: "localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTarget(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseTarget(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
