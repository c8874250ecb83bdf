package domain

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedKind Kind
		expectedVerb string
		expectedArgs string
	}{
		{
			name:         "verb with multi word argument",
			body:         "service primary db",
			expectedKind: KindService,
			expectedVerb: "service",
			expectedArgs: "primary db",
		},
		{
			name:         "verb without argument",
			body:         "services",
			expectedKind: KindServices,
			expectedVerb: "services",
			expectedArgs: "",
		},
		{
			name:         "surrounding whitespace is ignored",
			body:         "  sub db \n",
			expectedKind: KindSub,
			expectedVerb: "sub",
			expectedArgs: "db",
		},
		{
			name:         "verb is case sensitive",
			body:         "Services",
			expectedKind: KindUnknown,
			expectedVerb: "Services",
		},
		{
			name:         "unknown verb passes through",
			body:         "frobnicate now",
			expectedKind: KindUnknown,
			expectedVerb: "frobnicate",
			expectedArgs: "now",
		},
		{
			name:         "addservice keeps raw remainder",
			body:         "addservice web  extra",
			expectedKind: KindAddService,
			expectedVerb: "addservice",
			expectedArgs: "web  extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand("alice@example.com/phone", tt.body)
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			if cmd.Kind != tt.expectedKind {
				t.Errorf("Kind = %v, want %v", cmd.Kind, tt.expectedKind)
			}
			if cmd.Verb != tt.expectedVerb {
				t.Errorf("Verb = %q, want %q", cmd.Verb, tt.expectedVerb)
			}
			if cmd.Args != tt.expectedArgs {
				t.Errorf("Args = %q, want %q", cmd.Args, tt.expectedArgs)
			}
			if cmd.Sender != "alice@example.com/phone" {
				t.Errorf("Sender = %q, want full sender", cmd.Sender)
			}
		})
	}
}

func TestParseCommandEmpty(t *testing.T) {
	for _, body := range []string{"", "   ", "\n"} {
		_, err := ParseCommand("bob@example.com", body)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("ParseCommand(%q) error = %v, want ErrEmptyMessage", body, err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseCommand(%q) error should be a *ParseError", body)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		sender   string
		expected string
	}{
		{"alice@example.com/phone1", "alice@example.com"},
		{"alice@example.com", "alice@example.com"},
		{"alice@example.com/a/b", "alice@example.com"},
		{"/resource", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAddress(tt.sender); got != tt.expected {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.sender, got, tt.expected)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindAddService.String() != "addservice" {
		t.Errorf("KindAddService.String() = %q", KindAddService.String())
	}
	if KindUnknown.String() != "unknown" {
		t.Errorf("KindUnknown.String() = %q", KindUnknown.String())
	}
}
