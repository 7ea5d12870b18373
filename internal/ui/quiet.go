package ui

import "github.com/bamsammich/xcp/internal/stats"

// quietPresenter consumes events but produces no output. Errors still reach
// the user through the returned error.
type quietPresenter struct {
	stats stats.Reader
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
