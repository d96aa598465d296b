package journal

import "time"

// Recorder observes journal activity. pkg/metrics provides a Prometheus implementation.
type Recorder interface {
	Committed(journal, method string, took time.Duration)
	Failed(journal, method string)
	Volatile(journal, method string)
	Replayed(journal string, entries uint64, took time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) Committed(string, string, time.Duration) {}
func (noopRecorder) Failed(string, string)                   {}
func (noopRecorder) Volatile(string, string)                 {}
func (noopRecorder) Replayed(string, uint64, time.Duration)  {}
