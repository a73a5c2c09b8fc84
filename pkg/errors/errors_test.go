package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	if got := MetadataFor(CodeNotFound).HTTPStatus; got != http.StatusNotFound {
		t.Fatalf("not found status = %d", got)
	}
	if got := MetadataFor(CodeDependency).HTTPStatus; got != http.StatusBadGateway {
		t.Fatalf("dependency status = %d", got)
	}
	if !MetadataFor(CodeDependency).DetailsAllowed {
		t.Fatal("dependency errors must surface provider details")
	}
	if got := MetadataFor(Code("bogus")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := Wrap(CodeDependency, cause, "bling list call failed")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	typed := As(fmt.Errorf("outer: %w", err))
	if typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("As did not recover typed error: %v", typed)
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeValidation, nil, "bad page")
	if err.Unwrap() != nil {
		t.Fatal("nil cause should not be recorded")
	}
	if err.Code() != CodeValidation {
		t.Fatalf("code = %s", err.Code())
	}
}

func TestDumpChain(t *testing.T) {
	base := errors.New("broken pipe")
	err := Wrap(CodeDependency, base, "detail fetch")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("dump code = %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
