// Package kb is the persisted store of previously solved clues. One goroutine
// owns the graph; every operation is a request on its queue.
package kb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/vocab"
)

// Options configures a Store.
type Options struct {
	// PersistOnClose writes the snapshot once the queue has drained.
	PersistOnClose bool

	// QueueSize is the request buffer. Submitters block when it is full.
	QueueSize int
}

// Pending is the completion of a queued operation.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func completed(err error) *Pending {
	p := newPending()
	p.finish(err)
	return p
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the operation has run.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the operation has run or ctx ends.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type request struct {
	run     func(*state) error
	pending *Pending
}

// state is touched only by the actor goroutine.
type state struct {
	path     string
	disabled bool
	g        *graph.Graph
	records  []*Record
	index    map[string]*Record
}

// Store serialises all access to the knowledge base.
type Store struct {
	path  string
	opts  Options
	reqs  chan request
	ready chan struct{}
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Open starts the store goroutine and returns at once. The snapshot at path
// is loaded before the first request is served. A missing file is a first
// run and gives an empty, enabled store that the next Persist creates. Only
// a file that exists but cannot be read or parsed disables the store.
// Cancelling ctx closes the store.
func Open(ctx context.Context, path string, opts Options) *Store {
	if opts.QueueSize < 1 {
		opts.QueueSize = 16
	}
	s := &Store{
		path:  path,
		opts:  opts,
		reqs:  make(chan request, opts.QueueSize),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.loop()
	context.AfterFunc(ctx, func() { _ = s.Close(context.Background()) })
	return s
}

// Ready is closed once the snapshot has been loaded.
func (s *Store) Ready() <-chan struct{} { return s.ready }

func (s *Store) loop() {
	defer close(s.done)

	st := load(s.path)
	close(s.ready)

	for req := range s.reqs {
		req.pending.finish(req.run(st))
	}

	if s.opts.PersistOnClose && !st.disabled {
		if err := st.persist(); err != nil {
			logging.Error("final knowledge base persist failed", "path", s.path, "err", err)
		}
	}
}

func load(path string) *state {
	st := &state{path: path, index: make(map[string]*Record)}

	g, err := graph.Load(path)
	switch {
	case err == nil:
		st.g = g
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("no knowledge base yet, starting empty", "path", path)
		st.g = graph.New()
	default:
		logging.Warn("knowledge base disabled", "path", path, "err", err)
		st.disabled = true
		return st
	}

	for _, rec := range readRecords(st.g) {
		st.records = append(st.records, rec)
		st.index[recordKey(rec.ClueText, rec.Structure)] = rec
	}
	logging.Debug("knowledge base loaded", "path", path, "clues", len(st.records), "triples", st.g.Len())
	return st
}

func (s *Store) submit(run func(*state) error) *Pending {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return completed(model.ErrClosed)
	}
	p := newPending()
	s.reqs <- request{run: run, pending: p}
	return p
}

// Merge records every solution with a positive score under clue. A text
// already recorded for the same clue text and structure is skipped, so
// merging twice stores nothing new.
func (s *Store) Merge(clue *model.Clue, solutions []*model.Solution) *Pending {
	clueText := clue.SourceText()
	structure := clue.StructureString()
	var texts []string
	for _, sol := range solutions {
		if sol.Score > 0 {
			texts = append(texts, sol.Text)
		}
	}

	return s.submit(func(st *state) error {
		if st.disabled {
			logging.Debug("merge skipped", "clue", clueText, "err", model.ErrKnowledgeBaseDisabled)
			return model.ErrKnowledgeBaseDisabled
		}
		added := 0
		for _, text := range texts {
			if st.merge(clueText, structure, text) {
				added++
			}
		}
		logging.Debug("merged solutions", "clue", clueText, "structure", structure, "offered", len(texts), "added", added)
		return nil
	})
}

// Persist writes the whole graph to the store path. The in-memory state is
// unchanged when the write fails.
func (s *Store) Persist() *Pending {
	return s.submit(func(st *state) error {
		if st.disabled {
			logging.Debug("persist skipped", "path", st.path, "err", model.ErrKnowledgeBaseDisabled)
			return model.ErrKnowledgeBaseDisabled
		}
		if err := st.persist(); err != nil {
			logging.Error("knowledge base persist failed", "path", st.path, "err", err)
			return err
		}
		return nil
	})
}

// Lookup returns the record for a clue text and structure string.
func (s *Store) Lookup(ctx context.Context, clueText, structure string) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := s.submit(func(st *state) error {
		if r, ok := st.index[recordKey(clueText, structure)]; ok {
			rec, found = r.clone(), true
		}
		return nil
	}).Wait(ctx)
	return rec, found, err
}

// Records returns a copy of every record in load and insertion order.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.submit(func(st *state) error {
		for _, r := range st.records {
			out = append(out, r.clone())
		}
		return nil
	}).Wait(ctx)
	return out, err
}

// Stats reports counts for the store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.submit(func(st *state) error {
		stats = Stats{Enabled: !st.disabled, Path: st.path, Clues: len(st.records)}
		for _, r := range st.records {
			stats.Solutions += len(r.Solutions)
		}
		stats.Triples = st.g.Len()
		return nil
	}).Wait(ctx)
	return stats, err
}

// Close stops accepting requests, serves the ones already queued and
// persists when configured. It returns when the goroutine has exited or ctx
// ends.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.reqs)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (st *state) persist() error {
	if err := st.g.Save(st.path); err != nil {
		return fmt.Errorf("persist knowledge base: %w", err)
	}
	logging.Debug("knowledge base written", "path", st.path, "triples", st.g.Len())
	return nil
}

// merge adds text under the record for clueText and structure, creating the
// record when needed. It reports whether anything was added.
func (st *state) merge(clueText, structure, text string) bool {
	key := recordKey(clueText, structure)
	if rec, ok := st.index[key]; ok {
		if rec.HasSolution(text) {
			return false
		}
		clueNode, err := rdf.NewIRI(rec.URI)
		if err != nil {
			return false
		}
		st.addSolution(clueNode, text)
		rec.Solutions = append(rec.Solutions, text)
		return true
	}

	clueNode := graph.MustIRI(vocab.KBClues + uuid.New().String())
	st.g.Add(
		rdf.Triple{Subj: clueNode, Pred: graph.TypeIRI, Obj: clueClass},
		rdf.Triple{Subj: clueNode, Pred: hasClueText, Obj: graph.Literal(clueText, "")},
		rdf.Triple{Subj: clueNode, Pred: hasSolutionStructure, Obj: graph.Literal(structure, "")},
	)
	st.addSolution(clueNode, text)

	rec := &Record{
		ClueText:  clueText,
		Structure: structure,
		URI:       clueNode.String(),
		Solutions: []string{text},
	}
	st.records = append(st.records, rec)
	st.index[key] = rec
	return true
}

func (st *state) addSolution(clueNode rdf.IRI, text string) {
	solNode := graph.MustIRI(vocab.KBSolutions + uuid.New().String())
	st.g.Add(
		rdf.Triple{Subj: solNode, Pred: graph.TypeIRI, Obj: solutionClass},
		rdf.Triple{Subj: solNode, Pred: hasSolutionText, Obj: graph.Literal(text, "")},
		rdf.Triple{Subj: clueNode, Pred: solvedBy, Obj: solNode},
	)
}
