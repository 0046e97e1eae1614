package vm

// ---------------------------------------------------------------------------
// Unraisable failures: fault isolation for watcher callbacks
// ---------------------------------------------------------------------------

// UnraisableFailure captures a watcher callback error. Callback failures are
// strictly best-effort observations: they are reported here and discarded,
// never propagated into the mutation that triggered dispatch.
type UnraisableFailure struct {
	Kind   string // object kind: "dictionary", "type", "code", "function"
	Object Value  // the object whose mutation triggered the callback
	Err    error
}

// SetUnraisableHook installs a hook invoked for every captured callback
// failure, replacing any previous hook. Passing nil restores log-only
// reporting. Mainly useful for tests and embedders that surface failures
// through their own channel.
func (rt *Runtime) SetUnraisableHook(hook func(UnraisableFailure)) {
	rt.unraisableHook = hook
}

// reportUnraisable surfaces a callback failure through the unraisable
// channel. Dispatch continues with the remaining slots afterward.
func (rt *Runtime) reportUnraisable(kind string, object Value, err error) {
	if rt.unraisableHook != nil {
		rt.unraisableHook(UnraisableFailure{Kind: kind, Object: object, Err: err})
	}
	rt.log.Errorf("runtime %s: %s watcher callback failed on %s: %s", rt.ID, kind, object, err)
}
