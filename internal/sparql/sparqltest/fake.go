// Package sparqltest provides an in-memory sparql.Client for tests.
package sparqltest

import (
	"context"
	"strings"
	"sync"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/sparql"
)

// Rule answers every query containing all of its Match substrings.
type Rule struct {
	Match []string

	Rows   []sparql.Binding
	Vars   []string
	Graph  *graph.Graph
	CountN int
	Err    error

	// Block holds the query until its context ends.
	Block bool
}

func (r Rule) wait(ctx context.Context) error {
	if r.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.Err
}

func (r Rule) matches(query string) bool {
	for _, m := range r.Match {
		if !strings.Contains(query, m) {
			return false
		}
	}
	return true
}

// Client is a fake endpoint that records queries. The first matching rule
// wins; unmatched queries return empty results.
type Client struct {
	mu      sync.Mutex
	selects []Rule
	builds  []Rule
	counts  []Rule
	queries []string
}

// New returns an empty fake.
func New() *Client {
	return &Client{}
}

// OnSelect registers a SELECT rule.
func (c *Client) OnSelect(r Rule) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selects = append(c.selects, r)
	return c
}

// OnConstruct registers a CONSTRUCT rule.
func (c *Client) OnConstruct(r Rule) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builds = append(c.builds, r)
	return c
}

// OnCount registers a count rule.
func (c *Client) OnCount(r Rule) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = append(c.counts, r)
	return c
}

// Queries returns every query received, in order.
func (c *Client) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// QueriesContaining counts received queries containing s.
func (c *Client) QueriesContaining(s string) int {
	n := 0
	for _, q := range c.Queries() {
		if strings.Contains(q, s) {
			n++
		}
	}
	return n
}

func (c *Client) find(rules []Rule, query string) (Rule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	for _, r := range rules {
		if r.matches(query) {
			return r, true
		}
	}
	return Rule{}, false
}

// Select implements sparql.Client.
func (c *Client) Select(ctx context.Context, query string) (*sparql.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := c.find(c.selects, query)
	if !ok {
		return &sparql.ResultSet{}, nil
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return &sparql.ResultSet{Vars: r.Vars, Bindings: r.Rows}, nil
}

// Construct implements sparql.Client.
func (c *Client) Construct(ctx context.Context, query string) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := c.find(c.builds, query)
	if !ok {
		return graph.New(), nil
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	g := graph.New()
	g.Merge(r.Graph)
	return g, nil
}

// Count implements sparql.Client.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r, ok := c.find(c.counts, query)
	if !ok {
		return 0, nil
	}
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.CountN, nil
}
