package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/export"
	"github.com/dgallion1/docforge/internal/generate"
	"github.com/dgallion1/docforge/internal/parser"
	"github.com/dgallion1/docforge/internal/pdfdoc"
	"github.com/dgallion1/docforge/internal/store"
)

// WorkerOptions tune parsing and rendering.
type WorkerOptions struct {
	FallbackPdftotext bool
	// Render overrides export options, mostly for tests.
	Render export.Options
}

// Worker processes a single export job.
type Worker struct {
	gen   *generate.Client
	store store.Store
	log   *slog.Logger
	opts  WorkerOptions
}

func NewWorker(gen *generate.Client, st store.Store, log *slog.Logger, opts WorkerOptions) *Worker {
	return &Worker{gen: gen, store: st, log: log, opts: opts}
}

// document is one text to render and the artifact it ends up as.
type document struct {
	kind     doctree.DocKind
	text     string
	hash     string
	artifact *store.Artifact
	reused   bool
	err      error
}

// Process runs the full export pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	opts := job.Options()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, parser.Options{FallbackPdftotext: w.opts.FallbackPdftotext})
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	src, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()
	text := src.Text()
	job.SetLines(len(src.Lines))
	job.SetContentHash(ContentHashHex([]byte(text)))
	log.Info("parsed upload", "lines", len(src.Lines))

	hadErrors := false

	// Phase 2: Transform
	docs := []*document{{kind: opts.Kind, text: text}}
	if opts.JobDescription != "" && w.gen != nil && w.gen.Enabled() {
		job.SetStatus(StatusTransforming, "transforming")
		resp, err := w.gen.Transform(ctx, generate.Request{
			ResumeText:     text,
			JobDescription: opts.JobDescription,
			IsPremiumUser:  opts.Premium,
			BypassCache:    opts.BypassCache,
		})
		switch {
		case err != nil:
			log.Warn("transform failed, rendering upload as is", "error", err)
			job.AddError(fmt.Sprintf("transform: %s", err))
			hadErrors = true
		default:
			job.MarkTransformed()
			log.Info("transform complete", "changes", len(resp.ChangesMade), "keywords", len(resp.KeywordsExtracted))
			if resp.TransformedResume != "" {
				docs[0].text = resp.TransformedResume
			}
			if resp.CoverLetter != "" && opts.Kind == doctree.KindResume {
				docs = append(docs, &document{kind: doctree.KindCoverLetter, text: resp.CoverLetter})
			}
		}
	}

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	w.render(ctx, job, docs, opts.BypassCache)

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	linked := 0
	for _, d := range docs {
		if d.err == nil && !d.reused {
			d.err = w.save(ctx, d)
		}
		if d.err != nil {
			log.Error("document failed", "kind", d.kind, "error", d.err)
			job.AddError(fmt.Sprintf("%s: %s", d.kind, d.err))
			hadErrors = true
			continue
		}
		job.AddArtifact(d.artifact.ID, d.reused)
		linked++
	}

	allReused := linked == len(docs)
	for _, d := range docs {
		allReused = allReused && d.reused
	}

	switch {
	case linked == 0:
		job.SetStatus(StatusFailed, "storing")
	case hadErrors:
		job.SetStatus(StatusPartial, "done")
	case allReused:
		log.Info("all artifacts reused")
		job.SetStatus(StatusDuplicate, "dedup")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// render produces every document concurrently, reusing stored artifacts
// with the same content hash unless bypass is set.
func (w *Worker) render(ctx context.Context, job *Job, docs []*document, bypass bool) {
	ro := w.opts.Render
	ro.Format = export.FormatPDF
	if ro.Today.IsZero() {
		ro.Today = time.Now()
	}
	today := ro.Today.Format(export.DateLayout)

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range docs {
		d.hash = renderHash(d, today)
		g.Go(func() error {
			if !bypass {
				prev, err := w.store.FindByHash(ctx, d.hash)
				if err == nil {
					d.artifact, d.reused = prev, true
					job.IncrRendered()
					return nil
				}
				if !errors.Is(err, store.ErrNotFound) {
					w.log.Warn("dedup lookup failed, rendering", "job_id", job.ID, "error", err)
				}
			}
			a, err := export.Render(d.text, d.kind, ro)
			if err != nil {
				d.err = err
				return nil
			}
			d.artifact = &store.Artifact{
				JobID:       job.ID,
				Kind:        d.kind,
				Format:      string(a.Format),
				Filename:    a.Filename,
				ContentType: a.ContentType,
				Hash:        d.hash,
				Pages:       a.Pages,
				Data:        a.Data,
			}
			job.IncrRendered()
			return nil
		})
	}
	_ = g.Wait()
}

// renderHash keys a document by everything that shapes its PDF. Cover
// letters include the date that is injected when they carry none.
func renderHash(d *document, today string) string {
	if d.kind == doctree.KindCoverLetter {
		return store.Hash(d.text, d.kind, string(export.FormatPDF), today)
	}
	return store.Hash(d.text, d.kind, string(export.FormatPDF))
}

// save verifies the rendered page count and stores the artifact.
func (w *Worker) save(ctx context.Context, d *document) error {
	n, err := pdfdoc.PageCount(d.artifact.Data)
	if err != nil {
		return err
	}
	if n != d.artifact.Pages {
		return fmt.Errorf("page count mismatch: layout %d, pdf %d", d.artifact.Pages, n)
	}
	if err := w.store.Put(ctx, d.artifact); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}
