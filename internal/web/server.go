// Package web serves the snapshots and annual reports of a run over HTTP.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/internal/report"
	"github.com/vadiminshakov/pnlreport/internal/storage/snapshots"
)

const snapshotPollInterval = 2 * time.Second

type snapshotReader interface {
	RecordsAfter(index uint64) ([]snapshots.IndexedRecord, error)
}

// Server exposes the HTML viewer, the annual reports and an SSE stream of wallet snapshots.
type Server struct {
	Addr  string
	Store snapshotReader

	l      *zap.Logger
	mu     sync.RWMutex
	annual []report.AnnualReport
}

// NewServer creates a new web server instance.
func NewServer(l *zap.Logger, addr string, store snapshotReader) *Server {
	return &Server{Addr: addr, Store: store, l: l}
}

// SetAnnualReports replaces the reports served on /annual.
func (s *Server) SetAnnualReports(reports []report.AnnualReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annual = append([]report.AnnualReport(nil), reports...)
}

// Handler routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/annual", s.handleAnnual)
	mux.HandleFunc("/snapshots", s.handleSnapshots)
	mux.HandleFunc("/snapshots/stream", s.handleSnapshotStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("snapshot viewer started", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleAnnual(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	reports := s.annual
	s.mu.RUnlock()

	if reports == nil {
		reports = []report.AnnualReport{}
	}
	writeJSON(w, reports)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, _ *http.Request) {
	if s.Store == nil {
		http.Error(w, "snapshot store not available", http.StatusServiceUnavailable)
		return
	}
	records, err := s.Store.RecordsAfter(0)
	if err != nil {
		s.l.Error("load snapshots", zap.Error(err))
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []snapshots.IndexedRecord{}
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat keeps proxies from closing the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(snapshotPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendSnapshots := func() error {
		records, err := s.Store.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: snapshot\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			lastIndex = record.Index
		}
		flusher.Flush()
		return nil
	}

	if err := sendSnapshots(); err != nil {
		s.l.Error("snapshot stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendSnapshots(); err != nil {
				s.l.Warn("snapshot stream poll", zap.Error(err))
			}
		}
	}
}

// Cumulative PNL chart plus the annual table.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>PNL report</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <style>
    body { margin:2rem; font-family:'Space Mono','JetBrains Mono',monospace; color:#111; }
    #app { max-width:1100px; margin:0 auto; border:3px solid #111; padding:2rem; box-shadow:12px 12px 0 rgba(0,0,0,.15); }
    table { border-collapse:collapse; width:100%; margin-top:2rem; }
    th, td { border:1px solid #111; padding:.4rem .6rem; text-align:right; }
    th:first-child, td:first-child { text-align:left; }
    #status { font-size:.8rem; color:#9c9c9c; }
  </style>
</head>
<body>
<div id="app">
  <h1>Realized PNL</h1>
  <div id="status">connecting</div>
  <canvas id="pnlChart" height="110"></canvas>
  <table>
    <thead><tr><th>Year</th><th>PNL ref</th><th>Rate</th><th>PNL home</th><th>Wallet ref</th><th>Wallet home</th></tr></thead>
    <tbody id="annual"></tbody>
  </table>
</div>
<script>
const statusEl = document.getElementById('status');
const chart = new Chart(document.getElementById('pnlChart'), {
  type:'line',
  data:{ labels:[], datasets:[{ label:'cumulative PNL', data:[], borderColor:'#111111', backgroundColor:'rgba(17,17,17,0.12)', fill:true, stepped:true }] },
  options:{ animation:false, responsive:true, plugins:{ decimation:{ enabled:true, algorithm:'lttb', samples:500 } } }
});

const source = new EventSource('/snapshots/stream');
source.onopen = () => { statusEl.textContent = 'live'; };
source.onerror = () => { statusEl.textContent = 'reconnecting'; };
source.addEventListener('snapshot', (e) => {
  const s = JSON.parse(e.data);
  if(!s.utc_time){ return; }
  chart.data.labels.push(new Date(s.utc_time).toISOString().slice(0, 10));
  chart.data.datasets[0].data.push(Number(s.pnl));
  chart.update();
});

fetch('/annual').then(r => r.json()).then(reports => {
  const body = document.getElementById('annual');
  for(const r of reports){
    const row = document.createElement('tr');
    const year = new Date(r.utc_time).getUTCFullYear();
    for(const v of [year, r.pnl_reference, r.exchange_rate, r.pnl_home, r.wallet_value_reference, r.wallet_value_home]){
      const cell = document.createElement('td');
      cell.textContent = v;
      row.appendChild(cell);
    }
    body.appendChild(row);
  }
});
</script>
</body>
</html>`
