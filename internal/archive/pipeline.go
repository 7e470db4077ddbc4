// Package archive runs the client-side backup pipeline: collect a folder,
// read every file, build a zip, hash it, then push it through a one-shot
// upload target. Steps are strictly sequential; no step begins before the
// prior one's output is fully in memory, and a started run cannot be
// cancelled short of its context.
package archive

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/savevault/savevault/internal/api"
)

// State names one phase of a backup run.
type State int

const (
	StateIdle State = iota
	StateFolderPicked
	StateReading
	StateZipping
	StateHashing
	StateRequestingUploadTarget
	StateUploading
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFolderPicked:
		return "folder-picked"
	case StateReading:
		return "reading"
	case StateZipping:
		return "zipping"
	case StateHashing:
		return "hashing"
	case StateRequestingUploadTarget:
		return "requesting-upload-target"
	case StateUploading:
		return "uploading"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrEmptySelection reports a run started with no files picked.
var ErrEmptySelection = errors.New("no files selected")

// Progress checkpoints. Reading scales linearly over readPhaseSpan by bytes;
// the later steps jump between fixed marks.
const (
	readPhaseSpan    = 60
	zipDonePct       = 80
	hashStartPct     = 82
	hashDonePct      = 86
	targetDonePct    = 90
	uploadDonePct    = 100
	emptyReadPct     = 10
	listRefreshCount = 120
)

// Pipeline drives one backup run at a time.
type Pipeline struct {
	client api.Client
	label  string

	state    State
	progress func(pct int)
	logf     func(format string, args ...any)
	now      func() time.Time
}

type Option func(*Pipeline)

// WithProgress registers a callback for the 0-100 progress checkpoints.
func WithProgress(fn func(pct int)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogger registers the human-readable run log sink.
func WithLogger(fn func(format string, args ...any)) Option {
	return func(p *Pipeline) { p.logf = fn }
}

func New(client api.Client, label string, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   client,
		label:    label,
		state:    StateIdle,
		progress: func(int) {},
		logf:     func(string, ...any) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the current phase; StateDone or StateError after a run.
func (p *Pipeline) State() State {
	return p.state
}

// Run executes one full backup of sel and returns the uploaded archive name.
// Any step's failure moves the pipeline to StateError and returns; there is
// no automatic retry.
func (p *Pipeline) Run(ctx context.Context, sel *Selection) (string, error) {
	// Checked up front, before any reading begins.
	if sel == nil || len(sel.Entries) == 0 {
		return "", p.fail(ErrEmptySelection)
	}

	p.state = StateFolderPicked
	p.logf("folder picked: %s (%d files)", sel.FolderName, len(sel.Entries))

	contents, err := p.readAll(sel)
	if err != nil {
		return "", p.fail(err)
	}

	p.state = StateZipping
	p.logf("compressing %d files", len(contents))
	archive, err := buildZip(contents)
	if err != nil {
		return "", p.fail(err)
	}
	p.progress(zipDonePct)
	p.logf("archive built: %d bytes", len(archive))

	p.state = StateHashing
	p.progress(hashStartPct)
	sum := sha1.Sum(archive)
	sha1Hex := hex.EncodeToString(sum[:])
	p.progress(hashDonePct)
	p.logf("sha1: %s", sha1Hex[:10])

	p.state = StateRequestingUploadTarget
	fileName := FileName(p.now(), p.label, sel.FolderName)
	p.logf("upload name: %s", fileName)
	target, err := p.client.GetUploadTarget(ctx)
	if err != nil {
		return "", p.fail(err)
	}
	p.progress(targetDonePct)

	p.state = StateUploading
	p.logf("uploading %d bytes", len(archive))
	if err := p.client.UploadArchive(ctx, target, fileName, sha1Hex, archive); err != nil {
		return "", p.fail(err)
	}
	p.progress(uploadDonePct)

	p.state = StateDone
	p.logf("upload complete: %s", fileName)

	// Refresh the listing so the caller shows the new archive.
	if items, err := p.client.ListBackups(ctx, listRefreshCount); err != nil {
		p.logf("listing refresh failed: %v", err)
	} else {
		p.logf("%d backups stored", len(items))
	}

	return fileName, nil
}

// readAll reads every entry's full content sequentially, in selection order.
// Ordering determines progress granularity, so reads are never parallelized.
func (p *Pipeline) readAll(sel *Selection) ([]fileContent, error) {
	p.state = StateReading
	contents := make([]fileContent, 0, len(sel.Entries))

	var doneBytes int64
	for i, entry := range sel.Entries {
		p.logf("reading (%d/%d): %s", i+1, len(sel.Entries), entry.RelPath)

		data, err := os.ReadFile(entry.AbsPath)
		if err != nil {
			return nil, err
		}
		contents = append(contents, fileContent{relPath: entry.RelPath, data: data})

		doneBytes += int64(len(data))
		if sel.TotalBytes > 0 {
			p.progress(int(doneBytes * readPhaseSpan / sel.TotalBytes))
		} else {
			p.progress(emptyReadPct)
		}
	}
	return contents, nil
}

func (p *Pipeline) fail(err error) error {
	p.state = StateError
	p.logf("error: %v", err)
	return err
}
