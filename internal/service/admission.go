package service

import (
	"context"
	"time"
)

// admit reserves a queue slot, waiting at most maxWait. The returned release
// func must be called once the generation finished.
func (s *Service) admit(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()
	select {
	case s.queueCh <- struct{}{}:
		queueDepth.Inc()
		return func() {
			<-s.queueCh
			queueDepth.Dec()
		}, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{variant: string(s.cfg.Variant)}
	}
}
