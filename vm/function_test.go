package vm

import (
	"errors"
	"strings"
	"testing"
)

// funcEvent records one function watcher invocation.
type funcEvent struct {
	kind  FuncEventKind
	fn    *FunctionObject
	id    FuncID
	value Value
}

func funcEventRecorder(events *[]funcEvent) FuncWatcher {
	return func(kind FuncEventKind, fn *FunctionObject, id FuncID, value Value) error {
		*events = append(*events, funcEvent{kind: kind, fn: fn, id: id, value: value})
		return nil
	}
}

func TestFuncEventsDispatched(t *testing.T) {
	rt := NewRuntime()
	var events []funcEvent
	if _, err := rt.AddFuncWatcher(funcEventRecorder(&events)); err != nil {
		t.Fatal(err)
	}

	cm := rt.NewCompiledMethod("myfunc", "func_test.pt", 0)
	fn := rt.NewFunction("myfunc", cm)
	fnID := fn.ID()

	if len(events) != 1 || events[0].kind != FuncEventCreated || events[0].fn != fn {
		t.Fatalf("after create, events = %+v, want one Created for fn", events)
	}

	// Attribute-assignment path.
	newCode := rt.NewCompiledMethod("other", "func_test.pt", 0)
	if err := rt.FuncSetAttr(fn, "code", FromCode(newCode)); err != nil {
		t.Fatal(err)
	}
	last := events[len(events)-1]
	if last.kind != FuncEventModifyCode || last.value.Code() != newCode {
		t.Fatalf("after code assign, last event = %+v", last)
	}
	if fn.Code != newCode {
		t.Error("code assignment not applied")
	}

	if err := rt.FuncSetAttr(fn, "defaults", FromSmallInt(123)); err != nil {
		t.Fatal(err)
	}
	last = events[len(events)-1]
	if last.kind != FuncEventModifyDefaults || last.value.SmallInt() != 123 {
		t.Fatalf("after defaults assign, last event = %+v", last)
	}

	// Low-level path must hit the same dispatch point.
	rt.SetFunctionDefaults(fn, FromSmallInt(456))
	last = events[len(events)-1]
	if last.kind != FuncEventModifyDefaults || last.value.SmallInt() != 456 {
		t.Fatalf("after low-level defaults, last event = %+v", last)
	}

	kw := rt.NewDictionary()
	if err := rt.FuncSetAttr(fn, "kwdefaults", FromDictionary(kw)); err != nil {
		t.Fatal(err)
	}
	last = events[len(events)-1]
	if last.kind != FuncEventModifyKwDefaults || last.value.Dictionary() != kw {
		t.Fatalf("after kwdefaults assign, last event = %+v", last)
	}
	rt.SetFunctionKwDefaults(fn, Nil)
	last = events[len(events)-1]
	if last.kind != FuncEventModifyKwDefaults || !last.value.IsNil() {
		t.Fatalf("after low-level kwdefaults, last event = %+v", last)
	}

	// Destroy carries the stable id only.
	rt.ReleaseFunction(fn)
	last = events[len(events)-1]
	if last.kind != FuncEventDestroyed {
		t.Fatalf("after release, last event = %+v", last)
	}
	if last.fn != nil {
		t.Error("destroy event carries a live function reference")
	}
	if last.id != fnID {
		t.Errorf("destroy event id = %d, want %d", last.id, fnID)
	}
	if rt.Objects.GetFunction(fnID) != nil {
		t.Error("function still registered after release")
	}
}

func TestFuncSetAttrUnknown(t *testing.T) {
	rt := NewRuntime()
	fn := rt.NewFunction("f", rt.NewCompiledMethod("f", "func_test.pt", 0))

	if err := rt.FuncSetAttr(fn, "doc", FromString("x")); err == nil {
		t.Fatal("FuncSetAttr accepted an unknown attribute")
	}
	if err := rt.FuncSetAttr(fn, "code", FromSmallInt(1)); err == nil {
		t.Fatal("FuncSetAttr accepted a non-code value for code")
	}
}

func TestFuncMultipleWatchers(t *testing.T) {
	rt := NewRuntime()
	var events0, events1 []funcEvent
	rt.AddFuncWatcher(funcEventRecorder(&events0))
	rt.AddFuncWatcher(funcEventRecorder(&events1))

	fn := rt.NewFunction("myfunc", rt.NewCompiledMethod("myfunc", "func_test.pt", 0))

	if len(events0) != 1 || events0[0].kind != FuncEventCreated || events0[0].fn != fn {
		t.Errorf("watcher 0 events = %+v", events0)
	}
	if len(events1) != 1 || events1[0].kind != FuncEventCreated || events1[0].fn != fn {
		t.Errorf("watcher 1 events = %+v", events1)
	}
}

func TestFuncWatcherRaisesError(t *testing.T) {
	rt := NewRuntime()
	var captured []UnraisableFailure
	rt.SetUnraisableHook(func(f UnraisableFailure) {
		captured = append(captured, f)
	})

	rt.AddFuncWatcher(func(FuncEventKind, *FunctionObject, FuncID, Value) error {
		return errors.New("testing 123")
	})

	fn := rt.NewFunction("myfunc", rt.NewCompiledMethod("myfunc", "func_test.pt", 0))

	if len(captured) != 1 {
		t.Fatalf("captured %d unraisable failures, want 1", len(captured))
	}
	if captured[0].Object.Function() != fn {
		t.Error("unraisable failure does not reference the function")
	}
	if captured[0].Err.Error() != "testing 123" {
		t.Errorf("unraisable error = %q", captured[0].Err)
	}
}

func TestFuncUnwatchStopsEvents(t *testing.T) {
	rt := NewRuntime()
	var events []funcEvent
	wid, _ := rt.AddFuncWatcher(funcEventRecorder(&events))

	fn := rt.NewFunction("myfunc", rt.NewCompiledMethod("myfunc", "func_test.pt", 0))
	if err := rt.UnwatchFunction(wid, FromFunction(fn)); err != nil {
		t.Fatal(err)
	}
	rt.SetFunctionDefaults(fn, FromSmallInt(1))
	rt.ReleaseFunction(fn)

	if len(events) != 1 {
		t.Fatalf("events = %+v, want only the Created event", events)
	}

	// Re-watching requires a live object; the slot itself is still usable.
	fn2 := rt.NewFunction("other", rt.NewCompiledMethod("other", "func_test.pt", 0))
	if err := rt.WatchFunction(wid, FromFunction(fn2)); err != nil {
		t.Fatal(err)
	}
}

func TestFuncWatchNonFunction(t *testing.T) {
	rt := NewRuntime()
	wid, _ := rt.AddFuncWatcher(funcEventRecorder(new([]funcEvent)))

	err := rt.WatchFunction(wid, FromSmallInt(7))
	if !errors.Is(err, ErrWrongKind) {
		t.Fatalf("err = %v, want ErrWrongKind", err)
	}
	if !strings.Contains(err.Error(), "non-function") {
		t.Errorf("err = %v, want mention of non-function", err)
	}
}

func TestFuncClearWatcherErrors(t *testing.T) {
	rt := NewRuntime()

	for _, id := range []int{-1, MaxWatchers} {
		err := rt.ClearFuncWatcher(id)
		if !errors.Is(err, ErrInvalidWatcherID) {
			t.Fatalf("ClearFuncWatcher(%d) err = %v, want ErrInvalidWatcherID", id, err)
		}
		if !strings.Contains(err.Error(), "invalid func watcher ID") {
			t.Errorf("err = %v, want kind name in message", err)
		}
	}
	if err := rt.ClearFuncWatcher(1); !errors.Is(err, ErrWatcherNotSet) {
		t.Fatalf("ClearFuncWatcher(1) err = %v, want ErrWatcherNotSet", err)
	}
}

func TestFuncAllocateTooManyWatchers(t *testing.T) {
	rt := NewRuntime()

	for i := 0; i < MaxWatchers; i++ {
		if _, err := rt.AddFuncWatcher(funcEventRecorder(new([]funcEvent))); err != nil {
			t.Fatalf("AddFuncWatcher #%d failed: %v", i, err)
		}
	}
	if _, err := rt.AddFuncWatcher(funcEventRecorder(new([]funcEvent))); !errors.Is(err, ErrNoWatcherIDs) {
		t.Fatalf("9th AddFuncWatcher err = %v, want ErrNoWatcherIDs", err)
	}
}
