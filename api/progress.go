/*
progress.go - Newline-delimited JSON progress stream

PURPOSE:
  Long-running operations (the demo reseed here, the external sync
  jobs in production) report progress as one JSON object per line,
  flushed as they happen, terminated by a {"type":"complete"} sentinel
  so consumers know the stream ended on purpose.

WIRE FORMAT:
  {"message":"Loading employees","progress":40,"type":"info","operation":"seed"}
  ...
  {"type":"complete","progress":100}
*/
package api

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Progress message types.
const (
	ProgressInfo     = "info"
	ProgressSuccess  = "success"
	ProgressWarning  = "warning"
	ProgressError    = "error"
	ProgressComplete = "complete"
)

// ProgressMessage is one line of the stream.
type ProgressMessage struct {
	Message   string `json:"message,omitempty"`
	Progress  int    `json:"progress"`
	Type      string `json:"type"`
	Operation string `json:"operation,omitempty"`
}

// ProgressWriter streams ProgressMessages over an HTTP response.
type ProgressWriter struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	enc       *json.Encoder
	operation string
}

// NewProgressWriter prepares the response for NDJSON streaming. The
// operation tag is attached to every message.
func NewProgressWriter(w http.ResponseWriter, operation string) *ProgressWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	return &ProgressWriter{
		w:         w,
		flusher:   flusher,
		enc:       json.NewEncoder(w),
		operation: operation,
	}
}

// Send writes one progress line and flushes it.
func (p *ProgressWriter) Send(msgType, message string, progress int) {
	p.write(ProgressMessage{
		Message:   message,
		Progress:  progress,
		Type:      msgType,
		Operation: p.operation,
	})
}

// Complete terminates the stream with the sentinel line.
func (p *ProgressWriter) Complete() {
	p.write(ProgressMessage{Progress: 100, Type: ProgressComplete})
}

func (p *ProgressWriter) write(msg ProgressMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Encode errors mean the client went away; nothing useful to do.
	_ = p.enc.Encode(msg)
	if p.flusher != nil {
		p.flusher.Flush()
	}
}
