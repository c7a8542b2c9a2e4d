// Package registration delegates the long-running image-registration
// subprocess without blocking the upload response.  Instead of a truly
// detached spawn, jobs go through an explicit queue with an observable
// status per file, so a separate endpoint can report whether registration
// finished.  Launch failures are recorded and logged but never surface in
// the HTTP response that enqueued the job.
//
// The status map is confined to a single goroutine; workers and callers
// talk to it over channels, so no mutex is needed.
package registration

import (
	"log"
	"os/exec"
)

// Status values a job moves through.  A file the runner has never seen
// reports StatusUnknown.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

type statusUpdate struct {
	file   string
	status Status
}

type statusQuery struct {
	file  string
	reply chan Status
}

// Runner owns the job queue and the confined status map.
type Runner struct {
	jobs    chan string
	updates chan statusUpdate
	queries chan statusQuery
	launch  func(file string) error
	logf    func(string, ...any)
}

// CommandLauncher builds the default launcher: run the configured command
// with the stored file name appended as the final argument and wait for
// it to exit.  The subprocess reads the uploads directory and writes its
// two output files into the processed directory on its own; that contract
// lives entirely in the external tool.
func CommandLauncher(command string, args ...string) func(string) error {
	return func(file string) error {
		cmd := exec.Command(command, append(append([]string{}, args...), file)...)
		out, err := cmd.CombinedOutput()
		if err != nil && len(out) > 0 {
			log.Printf("[registration] %s output: %s", file, out)
		}
		return err
	}
}

// New starts a runner with the given launcher and worker count.  Logf is
// optional; pass nil to use the standard logger.
func New(launch func(string) error, workers int, logf func(string, ...any)) *Runner {
	if logf == nil {
		logf = log.Printf
	}
	if workers < 1 {
		workers = 1
	}
	r := &Runner{
		jobs:    make(chan string, 64),
		updates: make(chan statusUpdate, 16),
		queries: make(chan statusQuery),
		launch:  launch,
		logf:    logf,
	}
	go r.run()
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Enqueue submits a stored file for registration and returns immediately.
// A saturated queue marks the job failed rather than blocking the upload
// response.
func (r *Runner) Enqueue(file string) {
	r.updates <- statusUpdate{file: file, status: StatusQueued}
	select {
	case r.jobs <- file:
	default:
		r.logf("[registration] queue full, dropping %s", file)
		r.updates <- statusUpdate{file: file, status: StatusFailed}
	}
}

// Status reports the last recorded state for a stored file name.
func (r *Runner) Status(file string) Status {
	reply := make(chan Status, 1)
	r.queries <- statusQuery{file: file, reply: reply}
	return <-reply
}

// run confines the status map.
func (r *Runner) run() {
	state := make(map[string]Status)
	for {
		select {
		case u := <-r.updates:
			state[u.file] = u.status
		case q := <-r.queries:
			if s, ok := state[q.file]; ok {
				q.reply <- s
			} else {
				q.reply <- StatusUnknown
			}
		}
	}
}

// worker drains the queue, one subprocess at a time per worker.
func (r *Runner) worker() {
	for file := range r.jobs {
		r.updates <- statusUpdate{file: file, status: StatusRunning}
		if err := r.launch(file); err != nil {
			r.logf("[registration] %s failed: %v", file, err)
			r.updates <- statusUpdate{file: file, status: StatusFailed}
			continue
		}
		r.logf("[registration] %s done", file)
		r.updates <- statusUpdate{file: file, status: StatusDone}
	}
}
