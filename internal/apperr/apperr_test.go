package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := E("code_review", OutOfSandbox, "../../etc/passwd", errors.New("path escapes sandbox root"))

	want := "code_review: OutOfSandbox: ../../etc/passwd: path escapes sandbox root"
	if got := err.Error(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := E("read", NotFound, "a.js", nil)
	wrapped := fmt.Errorf("reading source: %w", base)

	if KindOf(wrapped) != NotFound {
		t.Fatalf("expected NotFound, got %s", KindOf(wrapped))
	}
	if !Is(wrapped, NotFound) {
		t.Fatalf("expected Is to match NotFound")
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Fatalf("expected plain errors to be Internal")
	}
	if Is(nil, Internal) {
		t.Fatalf("nil error must not match any kind")
	}
}

func TestWithOp(t *testing.T) {
	inner := E("read", TooLarge, "big.js", errors.New("over limit"))

	outer := WithOp(inner, "code_review")
	var tagged *Error
	if !errors.As(outer, &tagged) {
		t.Fatalf("expected tagged error")
	}
	if tagged.Op != "code_review" || tagged.Kind != TooLarge || tagged.Subject != "big.js" {
		t.Fatalf("unexpected retagged error: %+v", tagged)
	}

	plain := WithOp(errors.New("boom"), "search")
	if KindOf(plain) != Internal {
		t.Fatalf("expected Internal for untagged error")
	}

	if WithOp(nil, "search") != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestClass(t *testing.T) {
	tests := map[Kind]Class{
		InvalidGig:          ClassValidation,
		InvalidFixType:      ClassValidation,
		BackupFailed:        ClassResource,
		OutOfSandbox:        ClassResource,
		PlanOutOfRange:      ClassPlan,
		AdvisoryMalformed:   ClassExternal,
		AdvisoryUnavailable: ClassExternal,
		Internal:            ClassInternal,
	}

	for kind, want := range tests {
		if got := kind.Class(); got != want {
			t.Fatalf("%s: expected %s, got %s", kind, want, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	d := Describe(WithOp(E("score", InvalidProfile, "hourly_rate", errors.New("must be greater than 0")), "analyze_profile_fit"))

	if d.Op != "analyze_profile_fit" || d.Kind != InvalidProfile || d.Class != ClassValidation {
		t.Fatalf("unexpected details: %+v", d)
	}
	if d.Subject != "hourly_rate" {
		t.Fatalf("expected subject hourly_rate, got %q", d.Subject)
	}
	if d.Message == "" {
		t.Fatalf("expected message to be populated")
	}
}

func TestQualify(t *testing.T) {
	err := Qualify(E("rank", InvalidGig, "budget", errors.New("must be at least 0")), "gigs[2](gig_003)")

	var tagged *Error
	if !errors.As(err, &tagged) {
		t.Fatalf("expected tagged error, got %v", err)
	}
	if tagged.Subject != "gigs[2](gig_003).budget" || tagged.Kind != InvalidGig || tagged.Op != "rank" {
		t.Fatalf("unexpected error %v", err)
	}

	if got := Qualify(E("rank", InvalidGig, "", nil), "gigs[0]"); got.(*Error).Subject != "gigs[0]" {
		t.Fatalf("expected bare ref subject, got %v", got)
	}

	plain := errors.New("plain")
	if Qualify(plain, "gigs[0]") != plain {
		t.Fatalf("untagged errors must pass through")
	}
}
