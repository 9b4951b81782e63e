package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	ctxs []HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

type orderHook struct {
	name  string
	order *[]string
}

func (h *orderHook) Func(HookCtx) {
	*h.order = append(*h.order, h.name)
}

var _ = Describe("HookableBase", func() {
	It("should invoke registered hooks", func() {
		domain := &HookableBase{}
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		pos := &HookPos{Name: "Test"}
		domain.InvokeHook(HookCtx{Pos: pos, Item: 1})

		Expect(domain.NumHooks()).To(Equal(1))
		Expect(hook.ctxs).To(HaveLen(1))
		Expect(hook.ctxs[0].Pos).To(BeIdenticalTo(pos))
		Expect(hook.ctxs[0].Item).To(Equal(1))
	})

	It("should not accept the same hook twice", func() {
		domain := &HookableBase{}
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
		Expect(domain.NumHooks()).To(Equal(1))
	})

	It("should invoke hooks in registration order", func() {
		domain := &HookableBase{}
		var order []string
		first := &orderHook{name: "first", order: &order}
		second := &orderHook{name: "second", order: &order}
		domain.AcceptHook(first)
		domain.AcceptHook(second)

		domain.InvokeHook(HookCtx{Pos: &HookPos{Name: "Test"}})

		Expect(order).To(Equal([]string{"first", "second"}))
	})
})

var _ = Describe("Names", func() {
	It("should accept hierarchical names", func() {
		Expect(func() { NameMustBeValid("MemCtrl.CmdQ[0][1]") }).NotTo(Panic())
	})

	It("should reject invalid names", func() {
		Expect(func() { NameMustBeValid("") }).To(Panic())
		Expect(func() { NameMustBeValid("Mem Ctrl") }).To(Panic())
		Expect(func() { NameMustBeValid("Mem..Ctrl") }).To(Panic())
	})
})
