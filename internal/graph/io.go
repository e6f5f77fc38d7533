package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
)

// FormatForPath picks Turtle for .ttl files and N-Triples otherwise.
func FormatForPath(path string) rdf.Format {
	if strings.EqualFold(filepath.Ext(path), ".ttl") {
		return rdf.Turtle
	}
	return rdf.NTriples
}

// Read decodes triples from r into a new graph.
func Read(r io.Reader, format rdf.Format) (*Graph, error) {
	dec := rdf.NewTripleDecoder(r, format)
	g := New()
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode triple %d: %w", g.Len()+1, err)
		}
		g.Add(t)
	}
}

// Load reads a graph from path, choosing the format by extension.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	g, err := Read(bufio.NewReader(f), FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// Write encodes the graph as N-Triples.
func (g *Graph) Write(w io.Writer) error {
	enc := rdf.NewTripleEncoder(w, rdf.NTriples)
	for _, t := range g.triples {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode triple: %w", err)
		}
	}
	return enc.Close()
}

// Save writes the graph as N-Triples to path, replacing it atomically.
func (g *Graph) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := g.Write(bw); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
