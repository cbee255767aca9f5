package audit

import (
	"errors"
	"fmt"
	"io"

	"github.com/policyaudit/policyaudit/pkg/iohelper"
)

// artifacts collects output files rendered to temporary names. Nothing is
// visible at the destination paths until commit succeeds for all of them.
type artifacts struct {
	pending []*iohelper.PendingFile
}

// render writes one artifact through fn. An empty path skips it.
func (a *artifacts) render(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return nil
	}
	p, err := iohelper.CreatePending(path)
	if err != nil {
		return err
	}
	a.pending = append(a.pending, p)
	if err := fn(p); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// commit moves every artifact into place. If one rename fails the files
// already committed are rolled back to what was there before the run.
func (a *artifacts) commit() ([]string, error) {
	var committed []*iohelper.PendingFile
	for i, p := range a.pending {
		if err := p.Commit(); err != nil {
			a.pending = a.pending[i+1:]
			a.abort()
			errs := []error{err}
			for _, c := range committed {
				if rbErr := c.Restore(); rbErr != nil {
					errs = append(errs, rbErr)
				}
			}
			return nil, errors.Join(errs...)
		}
		committed = append(committed, p)
	}
	written := make([]string, 0, len(committed))
	for _, c := range committed {
		c.Release()
		written = append(written, c.Path())
	}
	a.pending = nil
	return written, nil
}

// abort discards every artifact not yet committed.
func (a *artifacts) abort() {
	for _, p := range a.pending {
		p.Abort()
	}
	a.pending = nil
}
