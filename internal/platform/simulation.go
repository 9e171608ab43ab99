package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SimulationPublisher stands in for platforms with no configured
// integration. It always succeeds after a short artificial delay so the
// dispatcher behaves uniformly across every platform value.
type SimulationPublisher struct {
	platform string
	delay    time.Duration
}

func NewSimulationPublisher(platform string) *SimulationPublisher {
	return &SimulationPublisher{platform: platform, delay: time.Second}
}

func (p *SimulationPublisher) Platform() string { return p.platform }

func (p *SimulationPublisher) Timeout() time.Duration { return 10 * time.Second }

func (p *SimulationPublisher) Publish(ctx context.Context, content string, mediaURL string) (*Result, error) {
	slog.Info("simulation mode, no real integration configured", "platform", p.platform)

	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	return &Result{PostID: fmt.Sprintf("sim_%s", id)}, nil
}
