// Package pipeline composes outgoing backend requests from an explicit,
// ordered list of steps and runs them as an http.RoundTripper.
//
// Backend clients compose steps in this order:
//
//	auth -> logging -> base-URL rewrite
//
// Transform steps return a new request and never mutate their input.
// Observer steps see the request as it was at their position in the
// pipeline, plus the final outcome, and cannot change either.
package pipeline

import (
	"fmt"
	"net/http"
	"time"
)

// Transform derives the next request from req.
type Transform func(req *http.Request) (*http.Request, error)

// Observer is notified after the round trip completes.
type Observer func(req *http.Request, resp *http.Response, err error, elapsed time.Duration)

// Step is one named stage. Exactly one of Transform or Observe is set.
type Step struct {
	Name      string
	Transform Transform
	Observe   Observer
}

// Pipeline is an http.RoundTripper that applies its steps in order before
// delegating to the underlying transport.
type Pipeline struct {
	steps []Step
	next  http.RoundTripper
	now   func() time.Time
}

// New creates a Pipeline over next. A nil next uses http.DefaultTransport.
func New(next http.RoundTripper, steps ...Step) *Pipeline {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Pipeline{steps: steps, next: next, now: time.Now}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

type observation struct {
	observe Observer
	req     *http.Request
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	var observers []observation

	cur := req
	for _, s := range p.steps {
		switch {
		case s.Transform != nil:
			next, err := s.Transform(cur)
			if err != nil {
				if req.Body != nil {
					_ = req.Body.Close()
				}
				return nil, fmt.Errorf("pipeline step %s: %w", s.Name, err)
			}
			cur = next
		case s.Observe != nil:
			observers = append(observers, observation{observe: s.Observe, req: cur})
		}
	}

	start := p.now()
	resp, err := p.next.RoundTrip(cur)
	elapsed := p.now().Sub(start)

	for _, o := range observers {
		o.observe(o.req, resp, err, elapsed)
	}

	return resp, err
}

// Client wraps the pipeline in an *http.Client with the given timeout.
func (p *Pipeline) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: p, Timeout: timeout}
}
