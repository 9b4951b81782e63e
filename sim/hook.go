package sim

import (
	"log"
	"slices"
)

// HookPos names a point at which a Hookable invokes its hooks.
type HookPos struct {
	Name string
}

// HookCtx is passed to every hook. Item is the command, transaction or event
// being processed at Pos.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// A Hook observes the queues, the scheduler, the driver and the engine
// without changing their behavior.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable is anything hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// HookableBase stores hooks and calls them in registration order.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	if slices.Contains(h.hooks, hook) {
		log.Panic("hook registered twice")
	}

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks registered. Callers check it before
// building a HookCtx on hot paths.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
