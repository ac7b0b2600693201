package faultfs

import "testing"

func TestErrorContextConsultDisabledReturnsZeroValue(t *testing.T) {
	ctx := NewErrorContext(1)
	outcome := ctx.consult(opRead, true, false, false)
	if outcome.injected {
		t.Fatal("a disabled context must never inject")
	}
}

func TestErrorContextConsultWholeStatusError(t *testing.T) {
	ctx := NewErrorContext(1)
	ctx.Enable(1)
	outcome := ctx.consult(opRead, true, false, false)
	if !outcome.injected || outcome.err == nil {
		t.Fatal("expected an injected IOError for a non-MultiReadSingleReq op")
	}
	if ctx.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", ctx.Count())
	}
	if ctx.LastMessage() == "" {
		t.Fatal("expected a non-empty LastMessage after injection")
	}
}

func TestErrorContextConsultNeedCountIncreaseFalse(t *testing.T) {
	ctx := NewErrorContext(1)
	ctx.Enable(1)
	ctx.consult(opMultiRead, false, false, false)
	if ctx.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 when needCountIncrease is false", ctx.Count())
	}
}

func TestErrorContextDisableStopsInjection(t *testing.T) {
	ctx := NewErrorContext(1)
	ctx.Enable(1)
	ctx.Disable()
	outcome := ctx.consult(opRead, true, false, false)
	if outcome.injected {
		t.Fatal("a disabled context must never inject")
	}
}

func TestErrorContextRegistryIsPerGoroutine(t *testing.T) {
	reg := newErrorContextRegistry()
	if got := reg.Get(); got != nil {
		t.Fatalf("expected nil context before Set, got %v", got)
	}

	ctx := NewErrorContext(1)
	reg.Set(ctx)
	if got := reg.Get(); got != ctx {
		t.Fatal("expected Get to return the context set on this goroutine")
	}

	reg.Clear()
	if got := reg.Get(); got != nil {
		t.Fatal("expected nil context after Clear")
	}
}

func TestErrorContextMultiReadSingleReqOutcomes(t *testing.T) {
	// With one_in=1 every call injects; run enough trials to observe
	// each of the three sub-outcomes (err / empty / corrupt).
	ctx := NewErrorContext(7)
	ctx.Enable(1)

	seenErr, seenEmpty, seenCorrupt := false, false, false
	for i := 0; i < 200; i++ {
		outcome := ctx.consult(opMultiReadSingleReq, true, false, true)
		if !outcome.injected {
			t.Fatal("one_in=1 must inject every call")
		}
		switch {
		case outcome.err != nil:
			seenErr = true
		case outcome.returnEmpty:
			seenEmpty = true
		case outcome.corruptLastByte:
			seenCorrupt = true
		}
	}
	if !seenErr || !seenEmpty || !seenCorrupt {
		t.Fatalf("expected to observe all three sub-outcomes over 200 trials: err=%v empty=%v corrupt=%v",
			seenErr, seenEmpty, seenCorrupt)
	}
}
