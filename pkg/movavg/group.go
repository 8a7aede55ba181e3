package movavg

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// group runs the pipeline stages next to long-lived services such as the MQTT
// switch. Stages end on their own when the input closes; services only end
// when their context does, so that context is cancelled once every stage has
// returned.
type group struct {
	stages   *errgroup.Group
	services *errgroup.Group
	svcCtx   context.Context
	cancel   context.CancelFunc
}

// newGroup returns the group and the context stages should watch. A stage
// error cancels both contexts.
func newGroup(ctx context.Context) (*group, context.Context) {
	stages, stageCtx := errgroup.WithContext(ctx)
	stages.SetLimit(-1)
	svcCtx, cancel := context.WithCancel(stageCtx)
	services, svcCtx := errgroup.WithContext(svcCtx)
	return &group{
		stages:   stages,
		services: services,
		svcCtx:   svcCtx,
		cancel:   cancel,
	}, stageCtx
}

func (g *group) Go(fn func() error) {
	g.stages.Go(fn)
}

// GoService starts the goroutine body built by fn with the service context.
func (g *group) GoService(fn func(ctx context.Context) func() error) {
	g.services.Go(fn(g.svcCtx))
}

// Wait blocks until every stage has returned, stops the services and returns
// the first error from either side, stages first.
func (g *group) Wait() error {
	err := g.stages.Wait()
	g.cancel()
	if svcErr := g.services.Wait(); err == nil {
		err = svcErr
	}
	return err
}
