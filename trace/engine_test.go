package trace

import (
	"bytes"
	"errors"
	"log"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/record"
)

// tracedA is the end-to-end workload: it calls tracedC ten times in a loop
// and returns 2.
func tracedA(rt *hooking.Runtime, num int) int {
	hooking.Call(rt, hooking.Arg{Name: "num", Value: num})

	for idx := 0; idx < 10; idx++ {
		hooking.Line(rt)
		tracedC(rt, idx)
	}

	hooking.Return(rt, 2)

	return 2
}

func tracedC(rt *hooking.Runtime, x int) int {
	hooking.Call(rt, hooking.Arg{Name: "x", Value: x})
	hooking.Return(rt, x)

	return x
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl    *gomock.Controller
		rt          *hooking.Runtime
		engine      *Engine
		transformer *MockEventTransformer
		writer      *MockWriter
		frame       *hooking.StaticFrame
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		rt = hooking.NewRuntime()
		transformer = NewMockEventTransformer(mockCtrl)
		writer = NewMockWriter(mockCtrl)
		frame = &hooking.StaticFrame{
			FnName: "f",
			FnLine: 1,
			FnFile: "f.go",
		}

		engine = NewEngine(rt).
			WithFilter(KeepAll()).
			WithTransformer(transformer).
			WithWriter(writer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should refuse to start without a filter", func() {
		Expect(func() {
			NewEngine(rt).WithFilter(nil).Start()
		}).To(Panic())
	})

	It("should run kept events through transform and write", func() {
		rec := record.New()
		transformer.EXPECT().TransformEvent(gomock.Any()).Return(rec, nil)
		writer.EXPECT().Write(rec).Return(nil)

		handle := engine.Start()
		defer handle.Stop()

		rt.Emit(frame, "call", nil)

		Expect(engine.EventsSeen()).To(Equal(uint64(1)))
		Expect(engine.RecordsKept()).To(Equal(uint64(1)))
	})

	It("should drop events that fail the filter before any transform", func() {
		engine.WithFilter(KeepKinds(KindCall))

		handle := engine.Start()
		defer handle.Stop()

		rt.Emit(frame, "line", nil)

		Expect(engine.EventsSeen()).To(Equal(uint64(1)))
		Expect(engine.RecordsKept()).To(Equal(uint64(0)))
	})

	It("should be stopped after Stop, idempotently", func() {
		handle := engine.Start()

		handle.Stop()
		handle.Stop()

		Expect(engine.State()).To(Equal(Stopped))

		rt.Emit(frame, "call", nil)
		Expect(engine.EventsSeen()).To(Equal(uint64(0)))
	})

	It("should rebind the hook when started twice", func() {
		rec := record.New()
		transformer.EXPECT().TransformEvent(gomock.Any()).Return(rec, nil)
		writer.EXPECT().Write(rec).Return(nil)

		engine.Start()
		handle := engine.Start()
		defer handle.Stop()

		Expect(engine.State()).To(Equal(Running))

		rt.Emit(frame, "call", nil)
		Expect(engine.EventsSeen()).To(Equal(uint64(1)))
	})

	It("should ignore Stop on a superseded handle", func() {
		rec := record.New()
		transformer.EXPECT().TransformEvent(gomock.Any()).Return(rec, nil)
		writer.EXPECT().Write(rec).Return(nil)

		stale := engine.Start()
		handle := engine.Start()
		defer handle.Stop()

		stale.Stop()

		Expect(engine.State()).To(Equal(Running))

		rt.Emit(frame, "call", nil)
		Expect(engine.RecordsKept()).To(Equal(uint64(1)))
	})

	It("should uninstall the hook before failing on an unknown kind", func() {
		engine.Start()

		Expect(func() {
			rt.Emit(frame, "opcode", nil)
		}).To(PanicWith(MatchError(ErrUnsupportedEventKind)))

		Expect(rt.Active()).To(BeFalse())
		Expect(engine.State()).To(Equal(Stopped))
	})

	It("should propagate a write failure and stop tracing", func() {
		rec := record.New()
		transformer.EXPECT().TransformEvent(gomock.Any()).Return(rec, nil)
		writer.EXPECT().Write(rec).Return(errors.New("disk full"))

		engine.Start()

		Expect(func() {
			rt.Emit(frame, "call", nil)
		}).To(PanicWith(MatchError(ContainSubstring("write stage"))))

		Expect(rt.Active()).To(BeFalse())
		Expect(engine.State()).To(Equal(Stopped))
	})

	It("should propagate a transform failure", func() {
		transformer.EXPECT().
			TransformEvent(gomock.Any()).
			Return(nil, errors.New("bad shape"))

		engine.Start()

		Expect(func() {
			rt.Emit(frame, "call", nil)
		}).To(PanicWith(MatchError(ContainSubstring("transform stage"))))

		Expect(engine.State()).To(Equal(Stopped))
	})

	It("should log and keep tracing when configured to continue", func() {
		logBuf := bytes.NewBuffer(nil)

		rec := record.New()
		transformer.EXPECT().TransformEvent(gomock.Any()).Return(rec, nil).Times(2)
		writer.EXPECT().Write(rec).Return(errors.New("disk full"))
		writer.EXPECT().Write(rec).Return(nil)

		engine.
			WithFailurePolicy(LogAndContinue).
			WithLogger(log.New(logBuf, "viper: ", 0))

		handle := engine.Start()
		defer handle.Stop()

		rt.Emit(frame, "call", nil)
		rt.Emit(frame, "call", nil)

		Expect(engine.State()).To(Equal(Running))
		Expect(logBuf.String()).To(ContainSubstring("write stage"))
		Expect(engine.RecordsKept()).To(Equal(uint64(1)))
	})

	It("should not recurse when a transform triggers traced code", func() {
		rec := record.New()
		transformer.EXPECT().
			TransformEvent(gomock.Any()).
			DoAndReturn(func(Event) (*record.Record, error) {
				// A probe firing inside the pipeline must be dropped by
				// the re-entrancy guard, not dispatched.
				tracedC(rt, 1)
				return rec, nil
			})
		writer.EXPECT().Write(rec).Return(nil)

		handle := engine.Start()
		defer handle.Stop()

		rt.Emit(frame, "call", nil)

		Expect(engine.EventsSeen()).To(Equal(uint64(1)))
		Expect(engine.RecordsKept()).To(Equal(uint64(1)))
	})

	It("should trace the demo workload end to end", func() {
		timeTeller := &testTimeTeller{now: time.Unix(1700000000, 0)}
		ring := NewRingWriter(64)

		workloadEngine := NewEngine(rt).
			WithFilter(KeepKinds(KindCall)).
			WithTransformer(NewStandardEventTransformer(
				NewChildFrameTransformer(timeTeller))).
			WithWriter(ring)

		handle := workloadEngine.Start()

		result := tracedA(rt, 1)
		handle.Stop()

		Expect(result).To(Equal(2))

		records := ring.Records()
		Expect(records).To(HaveLen(11))

		lastLineByFn := map[string]int64{}
		countsByFn := map[string]int{}

		for _, rec := range records {
			Expect(rec).To(haveField("event", "call"))

			frameVal, ok := rec.Get("frame")
			Expect(ok).To(BeTrue())
			frameRec := frameVal.(*record.Record)

			name, _ := frameRec.Get("fn_name")
			fnName := name.(string)
			countsByFn[fnName]++

			lineVal, _ := frameRec.Get("fn_line")
			line := lineVal.(int64)
			Expect(line).To(BeNumerically(">=", lastLineByFn[fnName]))
			lastLineByFn[fnName] = line
		}

		Expect(countsByFn).To(Equal(map[string]int{
			"tracedA": 1,
			"tracedC": 10,
		}))

		// Stopped means stopped: running the workload again must not
		// produce more records.
		tracedA(rt, 1)
		Expect(ring.Records()).To(HaveLen(11))
	})
})
