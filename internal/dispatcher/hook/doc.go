// Package hook provides extensible pre/post dispatch hooks for the dispatcher.
//
// Hooks intercept action dispatch for logging, filtering and validation.
// They are ordered by priority.
//
// # Hook Types
//
//   - PreDispatchHook: called before an action is dispatched. Can cancel the action.
//   - PostDispatchHook: called after dispatch completes. Can inspect or modify results.
//
// # Priority System
//
// Pre-hooks run highest priority first. Post-hooks run lowest first so the
// highest priority hook sees the final result.
//
//	PriorityAudit  = 1000
//	PriorityFilter = 900
//
// # Built-in Hooks
//
//   - AuditHook: logs every action through slog
//   - SourceFilterHook: restricts the actions scripts or HTTP clients may run
//
// # Usage
//
//	manager := hook.NewManager()
//	manager.Register(hook.NewAuditHook(logger))
//	manager.RegisterPre(hook.NewSourceFilterHook(input.SourceHTTP, "ToggleBold"))
package hook
