package security

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestRandomStringRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	if _, err := RandomString(-1, ObjectKeyAlphabet); !errors.Is(err, errNegativeLength) {
		t.Fatalf("RandomString(-1) error = %v, want errNegativeLength", err)
	}
	if _, err := RandomString(4, ""); !errors.Is(err, errEmptyAlphabet) {
		t.Fatalf("RandomString(4, \"\") error = %v, want errEmptyAlphabet", err)
	}
	got, err := RandomString(0, "")
	if err != nil || got != "" {
		t.Fatalf("RandomString(0, \"\") = %q, %v, want empty, nil", got, err)
	}
}

func TestRandomStringStaysInsideAlphabet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		length   int
		alphabet string
		pattern  *regexp.Regexp
	}{
		{
			name:     "object key suffix",
			length:   20,
			alphabet: ObjectKeyAlphabet,
			pattern:  regexp.MustCompile(`^[a-z0-9]{20}$`),
		},
		{
			name:     "temporary password",
			length:   16,
			alphabet: TemporaryPasswordAlphabet,
			pattern:  regexp.MustCompile(`^[A-HJ-NP-Za-km-z2-9]{16}$`),
		},
		{
			name:     "single character alphabet",
			length:   8,
			alphabet: "X",
			pattern:  regexp.MustCompile(`^X{8}$`),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			for round := 0; round < 32; round++ {
				got, err := RandomString(test.length, test.alphabet)
				if err != nil {
					t.Fatalf("RandomString(%d) returned error: %v", test.length, err)
				}
				if !test.pattern.MatchString(got) {
					t.Fatalf("RandomString(%d) = %q, want match for %s", test.length, got, test.pattern)
				}
			}
		})
	}
}

func TestTemporaryPasswordAlphabetSkipsLookalikes(t *testing.T) {
	t.Parallel()

	for _, char := range "0O1lI" {
		if strings.ContainsRune(TemporaryPasswordAlphabet, char) {
			t.Fatalf("TemporaryPasswordAlphabet contains lookalike %q", char)
		}
	}
	if strings.ToLower(ObjectKeyAlphabet) != ObjectKeyAlphabet {
		t.Fatalf("ObjectKeyAlphabet must be lowercase, got %q", ObjectKeyAlphabet)
	}
}
