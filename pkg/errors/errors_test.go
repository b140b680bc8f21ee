package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_NEW"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal metadata, got %+v", meta)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("root")
	err := Wrap(CodeDependency, cause, "loading discounts")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to match cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsThroughFmtWrapping(t *testing.T) {
	typed := New(CodeValidation, "bad value").WithDetails(map[string]string{"value": "is invalid"})
	err := fmt.Errorf("outer: %w", typed)

	got := As(err)
	if got == nil || got.Code() != CodeValidation {
		t.Fatalf("expected typed validation error, got %v", got)
	}
	if got.Details() == nil {
		t.Fatal("expected details to survive wrapping")
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk on fire"), "persist cart")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(dump.Chain))
	}
}
