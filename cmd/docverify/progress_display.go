package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"docverify/internal/stages"
	"docverify/internal/tracker"
)

// progressDisplay follows a job on the terminal. Interactive terminals get
// a live bar; other writers get one line per stage change.
type progressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	bar       *progressbar.ProgressBar
	lastStage string
	lastErr   string
	done      bool
}

func newProgressDisplay(out io.Writer, interactive bool) *progressDisplay {
	d := &progressDisplay{out: out}
	if interactive {
		d.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription("Waiting for status"),
			progressbar.OptionClearOnFinish(),
		)
	}
	return d
}

func (d *progressDisplay) update(snap tracker.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return
	}

	if snap.Err != nil {
		msg := snap.Err.Error()
		if msg != d.lastErr && d.bar == nil {
			fmt.Fprintf(d.out, "! status query failed, retrying: %s\n", msg)
		}
		d.lastErr = msg
		return
	}
	d.lastErr = ""
	if snap.Status == nil {
		return
	}

	label := activeLabel(snap)
	if d.bar != nil {
		d.bar.Describe(label)
		_ = d.bar.Set(snap.Progress())
		return
	}
	if label != d.lastStage {
		fmt.Fprintf(d.out, "▶ %s (%d%%)\n", label, snap.Progress())
		d.lastStage = label
	}
}

func (d *progressDisplay) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return
	}
	d.done = true
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}

func activeLabel(snap tracker.Snapshot) string {
	if snap.Terminal {
		return "Finished (" + string(snap.JobStatus()) + ")"
	}
	if idx := stages.ActiveIndex(snap.Stages); idx >= 0 {
		return snap.Stages[idx].Label
	}
	if token := snap.CurrentStage(); token != "" {
		return stages.LabelFromID(token)
	}
	return "Queued"
}
