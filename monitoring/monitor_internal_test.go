package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/record"
	"github.com/tracelab/viper/trace"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		rt     *hooking.Runtime
		engine *trace.Engine
		ring   *trace.RingWriter
	)

	BeforeEach(func() {
		rt = hooking.NewRuntime()
		ring = trace.NewRingWriter(8)
		engine = trace.NewEngine(rt).
			WithFilter(trace.KeepAll()).
			WithWriter(ring)

		m = NewMonitor()
		m.RegisterEngine(engine)
	})

	It("should report the engine state", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/status", nil)

		m.status(w, r)

		var rsp statusRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.State).To(Equal("stopped"))
		Expect(rsp.EventsSeen).To(Equal(uint64(0)))
	})

	It("should include the ring total when a ring is registered", func() {
		m.RegisterRing(ring)
		Expect(ring.Write(record.New().Set("event", "call"))).To(Succeed())

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/status", nil)

		m.status(w, r)

		var rsp statusRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.RingTotal).To(Equal(uint64(1)))
	})

	It("should reject record listing without a ring", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/records", nil)

		m.listRecords(w, r)

		Expect(w.Code).To(Equal(404))
	})

	It("should list the most recent records up to the limit", func() {
		m.RegisterRing(ring)

		for i := 0; i < 3; i++ {
			rec := record.New().Set("event", "call").Set("fn_line", i)
			Expect(ring.Write(rec)).To(Succeed())
		}

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/records?limit=2", nil)

		m.listRecords(w, r)

		var listed []map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &listed)).To(Succeed())
		Expect(listed).To(HaveLen(2))
		Expect(listed[0]["fn_line"]).To(Equal(1.0))
		Expect(listed[1]["fn_line"]).To(Equal(2.0))
	})

	It("should reject a malformed limit", func() {
		m.RegisterRing(ring)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/records?limit=many", nil)

		m.listRecords(w, r)

		Expect(w.Code).To(Equal(400))
	})

	It("should pause and resume the trace session", func() {
		m.RegisterSession(engine.Start())
		Expect(engine.State()).To(Equal(trace.Running))

		w := httptest.NewRecorder()
		m.pauseTracing(w, httptest.NewRequest("GET", "/api/pause", nil))
		Expect(engine.State()).To(Equal(trace.Stopped))

		w = httptest.NewRecorder()
		m.continueTracing(w, httptest.NewRequest("GET", "/api/continue", nil))
		Expect(engine.State()).To(Equal(trace.Running))

		m.pauseTracing(httptest.NewRecorder(),
			httptest.NewRequest("GET", "/api/pause", nil))
	})

	It("should fall back to a random port for privileged ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})
})
