package services

import (
	"errors"
	"testing"

	"github.com/terraincognita07/ecgscan/internal/models"
)

func TestNormalizeAuthEmail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "normalizes case and spaces", raw: " NURSE@CLINIC.ORG ", want: "nurse@clinic.org"},
		{name: "invalid email returns empty", raw: "not-email", want: ""},
		{name: "empty returns empty", raw: "   ", want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if got := NormalizeAuthEmail(testCase.raw); got != testCase.want {
				t.Fatalf("NormalizeAuthEmail(%q) = %q, want %q", testCase.raw, got, testCase.want)
			}
		})
	}
}

func TestNormalizeCredentialsInput(t *testing.T) {
	email, password, err := NormalizeCredentialsInput(" USER@EXAMPLE.COM ", "  StrongPass1  ")
	if err != nil {
		t.Fatalf("expected valid credentials input, got %v", err)
	}
	if email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", email)
	}
	if password != "StrongPass1" {
		t.Fatalf("expected trimmed password, got %q", password)
	}

	_, _, err = NormalizeCredentialsInput("not-email", "StrongPass1")
	if !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for invalid email, got %v", err)
	}

	_, _, err = NormalizeCredentialsInput("user@example.com", " ")
	if !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for empty password, got %v", err)
	}
}

func TestNormalizeUsername(t *testing.T) {
	username, err := NormalizeUsername("  Dr.   House ")
	if err != nil {
		t.Fatalf("NormalizeUsername() unexpected error: %v", err)
	}
	if username != "Dr. House" {
		t.Fatalf("NormalizeUsername() = %q, want %q", username, "Dr. House")
	}

	if _, err := NormalizeUsername("   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank username, got %v", err)
	}
}

func TestNormalizeRegistrationRole(t *testing.T) {
	role, err := NormalizeRegistrationRole("")
	if err != nil || role != models.RoleNurse {
		t.Fatalf("NormalizeRegistrationRole(\"\") = %q, %v, want nurse", role, err)
	}

	role, err = NormalizeRegistrationRole(" Physician ")
	if err != nil || role != models.RolePhysician {
		t.Fatalf("NormalizeRegistrationRole(Physician) = %q, %v, want physician", role, err)
	}

	if _, err := NormalizeRegistrationRole("admin"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}
