package bridge

import (
	"context"
	"sync"
)

// playout is an unbounded FIFO of backend events waiting for caller-side
// playback capacity. The outbound relay pushes; the playout loop pops.
type playout struct {
	mu     sync.Mutex
	queue  []BackendEvent
	closed bool
	ready  chan struct{}
}

func newPlayout() *playout {
	return &playout{ready: make(chan struct{}, 1)}
}

func (p *playout) push(ev BackendEvent) {
	p.mu.Lock()
	if !p.closed {
		p.queue = append(p.queue, ev)
	}
	p.mu.Unlock()
	p.signal()
}

// close ends the queue once it drains.
func (p *playout) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.signal()
}

// pop returns the oldest event. It reports false when the queue is closed
// and empty, or ctx is done.
func (p *playout) pop(ctx context.Context) (BackendEvent, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			ev := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return ev, true
		}
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-p.ready:
		}
	}
}

func (p *playout) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// runPlayout forwards queued model audio to the caller, waiting for mark
// capacity before each chunk. Response completions travel through the same
// queue so they apply after the audio that preceded them.
func (c *Coordinator) runPlayout(ctx context.Context) error {
	for {
		ev, ok := c.playout.pop(ctx)
		if !ok {
			return nil
		}
		switch ev := ev.(type) {
		case *AudioDelta:
			if err := c.forwardAudio(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case *ResponseDone:
			c.session.CompleteResponse()
			c.logger.Debug("response done", "response_id", ev.ResponseID, "status", ev.Status)
		}
	}
}
