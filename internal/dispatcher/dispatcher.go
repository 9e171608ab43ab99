package dispatcher

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/platform"
	"github.com/postlinehq/postline/internal/repository"
)

// CredentialResolver yields a ready publisher for a platform, plus the
// store-backed account the credentials came from, if any.
type CredentialResolver interface {
	Resolve(ctx context.Context, platformName string) (platform.Publisher, *models.ConnectedAccount, error)
}

// Dispatcher runs the scheduling loop: on every tick it scans for pending
// posts whose scheduled time has passed and pushes each one to its
// platform, committing a terminal status per post. The loop is the error
// boundary of last resort; nothing an adapter or the resolver does can
// take it down.
type Dispatcher struct {
	posts    repository.PostRepository
	accounts repository.ConnectedAccountRepository
	resolver CredentialResolver
	interval time.Duration

	// cycleMu serializes dispatch work so a slow cycle can never overlap
	// the next tick, and the queue fast path can never race the poller.
	cycleMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	posts repository.PostRepository,
	accounts repository.ConnectedAccountRepository,
	resolver CredentialResolver,
	interval time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		posts:    posts,
		accounts: accounts,
		resolver: resolver,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the scheduling loop.
func (d *Dispatcher) Start() {
	log.Printf("Starting dispatcher, interval: %v", d.interval)

	d.wg.Add(1)
	go d.loop()
}

// Stop halts the loop. An in-flight cycle finishes its current post
// before the call returns; publishes are never cancelled midway.
func (d *Dispatcher) Stop() {
	log.Println("Stopping dispatcher...")
	d.cancel()
	d.wg.Wait()
	log.Println("Dispatcher stopped")
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Catch up on overdue posts immediately on start.
	d.RunCycle()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.RunCycle()
		}
	}
}

// RunCycle executes one dispatch cycle. If a previous cycle is still
// running the tick is skipped rather than queued.
func (d *Dispatcher) RunCycle() {
	if !d.cycleMu.TryLock() {
		slog.Info("previous dispatch cycle still running, skipping tick")
		return
	}
	defer d.cycleMu.Unlock()

	now := time.Now().UTC()

	due, err := d.posts.ListDue(d.ctx, now)
	if err != nil {
		// The store is unreachable; abandon this cycle and let the next
		// tick retry.
		slog.Error("failed to query due posts", "error", err)
		return
	}

	for _, post := range due {
		select {
		case <-d.ctx.Done():
			return
		default:
		}
		d.dispatch(post)
	}
}

// DispatchPost is the queue fast path: it publishes a single post on
// demand, re-checking that the post is still pending and due so a stale
// or duplicate task is a no-op.
func (d *Dispatcher) DispatchPost(ctx context.Context, postID int64) error {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	post, err := d.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("post no longer exists, skipping", "post_id", postID)
		return nil
	}
	if post.Status != models.PostStatusPending {
		slog.Info("post already reached a terminal status, skipping", "post_id", postID, "status", post.Status)
		return nil
	}
	if post.ScheduledAt.After(time.Now().UTC()) {
		slog.Info("post not yet due, leaving for the scheduling loop", "post_id", postID)
		return nil
	}

	d.dispatch(post)
	return nil
}

// dispatch performs exactly one publish attempt and commits a terminal
// status. Any error along the way, including a panic out of an adapter,
// converts to a failed post; it never propagates.
func (d *Dispatcher) dispatch(post *models.SocialPost) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic while dispatching post", "post_id", post.ID, "panic", p)
			d.markFailed(post, fmt.Sprintf("internal error: %v", p))
		}
	}()

	// Everything below runs on a detached context: once a post's dispatch
	// has started, shutdown waits for it instead of cancelling it midway
	// and leaving the post in an ambiguous state.
	ctx := context.Background()

	pub, account, err := d.resolver.Resolve(ctx, post.Platform)
	if err != nil {
		d.markFailed(post, err.Error())
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, pub.Timeout())
	defer cancel()

	result, err := pub.Publish(pubCtx, post.Content, post.MediaURL.String)
	if err != nil {
		slog.Info("publish failed", "post_id", post.ID, "platform", post.Platform, "error", err)
		d.markFailed(post, err.Error())
		return
	}

	now := time.Now().UTC()
	claimed, err := d.posts.MarkPublished(ctx, post.ID, result.PostID, now)
	if err != nil {
		slog.Error("failed to persist published status", "post_id", post.ID, "error", err)
		return
	}
	if !claimed {
		slog.Info("post was already transitioned elsewhere", "post_id", post.ID)
		return
	}

	log.Printf("Post %d published to %s (external id %q)", post.ID, post.Platform, result.PostID)

	if account != nil {
		if err := d.accounts.TouchLastUsed(ctx, account.ID, now); err != nil {
			slog.Error("failed to update account last_used_at", "account_id", account.ID, "error", err)
		}
	}
}

func (d *Dispatcher) markFailed(post *models.SocialPost, message string) {
	claimed, err := d.posts.MarkFailed(context.Background(), post.ID, message, time.Now().UTC())
	if err != nil {
		slog.Error("failed to persist failed status", "post_id", post.ID, "error", err)
		return
	}
	if claimed {
		log.Printf("Post %d failed on %s: %s", post.ID, post.Platform, message)
	}
}
