package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", Validation("text cannot be empty"), ErrValidation},
		{"invalid state", InvalidState("job is %s", "published"), ErrInvalidState},
		{"gateway", Gateway("status %d", 502), ErrGateway},
		{"generation", Generation("no entries"), ErrGeneration},
		{"upstream", UpstreamUnavailable("db down"), ErrUpstreamUnavailable},
		{"not found", NotFound("job 42"), ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.kind) {
				t.Fatalf("expected %v to match its kind", tc.err)
			}
			for _, other := range cases {
				if other.kind != tc.kind && errors.Is(tc.err, other.kind) {
					t.Fatalf("%v should not match %v", tc.err, other.kind)
				}
			}
		})
	}
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", Validation("no destinations"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("kind should survive fmt.Errorf wrapping")
	}
}

func TestErrorMessage(t *testing.T) {
	err := InvalidState("job %d is %s", 7, "draft")
	if err.Error() != "job 7 is draft" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
