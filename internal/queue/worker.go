package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/postlinehq/postline/internal/dispatcher"
)

type Worker struct {
	d *dispatcher.Dispatcher
}

func NewWorker(d *dispatcher.Dispatcher) *Worker {
	return &Worker{d: d}
}

// HandlePublishPostTask routes a due task into the dispatcher's single
// per-post path. The dispatcher re-checks the post is still pending, so a
// task that raced the polling loop is a no-op.
func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.d.DispatchPost(ctx, payload.PostID)
}
