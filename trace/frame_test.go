package trace

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/summarize"
)

// stackOfDepth builds a synthetic frame with depth ancestors above it.
// Ancestors are named p1 (immediate caller) through p<depth> (stack base).
func stackOfDepth(depth int) hooking.Frame {
	var caller hooking.Frame

	for i := depth; i >= 1; i-- {
		caller = &hooking.StaticFrame{
			FnName:   fmt.Sprintf("p%d", i),
			FnCaller: caller,
		}
	}

	return &hooking.StaticFrame{FnName: "current", FnCaller: caller}
}

var _ = Describe("FrameSnapshot", func() {
	It("should capture the argument mapping in declaration order", func() {
		frame := &hooking.StaticFrame{
			FnName: "f",
			FnArgs: []hooking.Arg{
				{Name: "b", Value: 2},
				{Name: "a", Value: 1},
				{Name: "c", Value: 3},
			},
		}

		snap := SnapshotWithArgs(frame, summarize.Default)

		Expect(snap.ArgsRecord().Keys()).To(Equal([]string{"b", "a", "c"}))
	})

	It("should capture an empty mapping for zero arguments", func() {
		snap := SnapshotWithArgs(&hooking.StaticFrame{FnName: "f"},
			summarize.Default)

		Expect(snap.Args).To(BeEmpty())
		Expect(snap.Args).ToNot(BeNil())
	})

	It("should capture a single argument", func() {
		frame := &hooking.StaticFrame{
			FnName: "f",
			FnArgs: []hooking.Arg{{Name: "x", Value: "hi"}},
		}

		snap := SnapshotWithArgs(frame, summarize.Default)

		Expect(snap.Args).To(HaveLen(1))
		Expect(snap.Args[0].Name).To(Equal("x"))
		Expect(snap.Args[0].Value).To(Equal(`"hi"`))
	})

	It("should not change when the live frame moves on", func() {
		frame := &hooking.StaticFrame{FnName: "f", FnLine: 10}

		snap := Snapshot(frame)
		frame.FnLine = 99

		Expect(snap.FnLine).To(Equal(10))
	})
})

var _ = Describe("Walker", func() {
	It("should include the immediate caller with no skip", func() {
		parents := Walker{Skip: 0}.WalkParents(stackOfDepth(4))

		Expect(parents).To(HaveLen(4))
		Expect(parents[0].FnName).To(Equal("p1"))
		Expect(parents[3].FnName).To(Equal("p4"))
	})

	It("should start at the caller's caller with the default skip", func() {
		parents := DefaultWalker.WalkParents(stackOfDepth(4))

		Expect(parents).To(HaveLen(3))
		Expect(parents[0].FnName).To(Equal("p2"))
		Expect(parents[2].FnName).To(Equal("p4"))
	})

	It("should walk nearest ancestor first", func() {
		parents := Walker{Skip: 0}.WalkParents(stackOfDepth(3))

		names := []string{}
		for _, p := range parents {
			names = append(names, p.FnName)
		}

		Expect(names).To(Equal([]string{"p1", "p2", "p3"}))
	})

	It("should return an empty chain at the base of the stack", func() {
		parents := DefaultWalker.WalkParents(stackOfDepth(0))

		Expect(parents).To(BeEmpty())
	})

	It("should truncate when the chain runs out within the skip", func() {
		parents := DefaultWalker.WalkParents(stackOfDepth(1))

		Expect(parents).To(BeEmpty())
	})

	It("should yield a deterministic length for a fixed depth", func() {
		for depth := 2; depth <= 16; depth++ {
			parents := DefaultWalker.WalkParents(stackOfDepth(depth))

			Expect(parents).To(HaveLen(depth - 1))
		}
	})
})
