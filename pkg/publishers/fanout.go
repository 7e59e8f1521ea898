package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Fanout delivers every event to all of its publishers concurrently.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries from pubs.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish waits for every publisher and returns how many accepted evt.
// Failures are joined in publisher order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f.Size() == 0 {
		return 0, nil
	}
	if len(f.publishers) == 1 {
		return f.deliver(ctx, 0, evt)
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i := range f.publishers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.deliver(ctx, i, evt)
		}(i)
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

func (f *Fanout) deliver(ctx context.Context, i int, evt Event) (int, error) {
	p := f.publishers[i]
	if err := p.Publish(ctx, evt); err != nil {
		return 0, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
	}
	return 1, nil
}

// Size returns the number of publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close closes every publisher that implements io.Closer.
func (f *Fanout) Close() error {
	var errs []error
	for i := 0; i < f.Size(); i++ {
		p := f.publishers[i]
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
