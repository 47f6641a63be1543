package contact_test

import (
	"testing"

	"github.com/protech/repairbot/internal/contact"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   string
		want   contact.Form
		wantOK bool
	}{
		{
			name:   "Without phone",
			args:   "Tariro | tariro@example.com | Laptop won't boot",
			want:   contact.Form{Name: "Tariro", Email: "tariro@example.com", Message: "Laptop won't boot"},
			wantOK: true,
		},
		{
			name:   "With phone",
			args:   "Tariro|tariro@example.com|+263 77 000 0000|Need an SSD",
			want:   contact.Form{Name: "Tariro", Email: "tariro@example.com", Phone: "+263 77 000 0000", Message: "Need an SSD"},
			wantOK: true,
		},
		{
			name:   "Pipe inside message",
			args:   "T | t@example.com | 123 | a | b",
			want:   contact.Form{Name: "T", Email: "t@example.com", Phone: "123", Message: "a | b"},
			wantOK: true,
		},
		{name: "Too few parts", args: "Tariro | hello", wantOK: false},
		{name: "Empty", args: "", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := contact.ParseCommand(tt.args)
			if ok != tt.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.args, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	err := &contact.ValidationError{Fields: map[string]string{
		"message": "is required",
		"email":   "must be a valid email address",
	}}
	want := "email must be a valid email address, message is required"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
