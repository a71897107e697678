// Package monitoring turns a running trace engine into a small web server
// that reports its state, recent records, and the host process's resource
// usage, and allows pausing and resuming the trace.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/tracelab/viper/trace"
)

// Monitor exposes one trace engine over HTTP.
type Monitor struct {
	engine     *trace.Engine
	ring       *trace.RingWriter
	portNumber int
	useBrowser bool

	sessionLock sync.Mutex
	session     *trace.Handle
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.useBrowser = true
	return m
}

// RegisterEngine registers the engine to be monitored.
func (m *Monitor) RegisterEngine(e *trace.Engine) {
	m.engine = e
}

// RegisterRing registers the ring writer whose records the monitor serves.
func (m *Monitor) RegisterRing(r *trace.RingWriter) {
	m.ring = r
}

// RegisterSession registers the handle of the running trace session so the
// monitor can pause and resume it.
func (m *Monitor) RegisterSession(h *trace.Handle) {
	m.sessionLock.Lock()
	m.session = h
	m.sessionLock.Unlock()
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/records", m.listRecords)
	r.HandleFunc("/api/pause", m.pauseTracing)
	r.HandleFunc("/api/continue", m.continueTracing)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring trace with %s\n", url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.useBrowser {
		err := browser.OpenURL(url + "/api/status")
		dieOnErr(err)
	}
}

type statusRsp struct {
	State       string `json:"state"`
	EventsSeen  uint64 `json:"events_seen"`
	RecordsKept uint64 `json:"records_kept"`
	RingTotal   uint64 `json:"ring_total,omitempty"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{
		State:       m.engine.State().String(),
		EventsSeen:  m.engine.EventsSeen(),
		RecordsKept: m.engine.RecordsKept(),
	}

	if m.ring != nil {
		rsp.RingTotal = m.ring.Total()
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listRecords(w http.ResponseWriter, r *http.Request) {
	if m.ring == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No ring writer registered"))
		dieOnErr(err)

		return
	}

	records := m.ring.Records()

	limitStr := r.URL.Query().Get("limit")
	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Invalid limit: %s", limitStr)

			return
		}

		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	bytes, err := json.Marshal(records)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) pauseTracing(w http.ResponseWriter, _ *http.Request) {
	m.sessionLock.Lock()
	if m.session != nil {
		m.session.Stop()
	}
	m.sessionLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueTracing(w http.ResponseWriter, _ *http.Request) {
	m.sessionLock.Lock()
	m.session = m.engine.Start()
	m.sessionLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
