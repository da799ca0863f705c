// Package broadcast delivers the backend's scheduled posts to their target
// groups.
package broadcast

import (
	"context"
	"fmt"
	"sync"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
	"earnquest-bot/templates"
	"earnquest-bot/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PostSource is the backend side of a broadcast cycle.
type PostSource interface {
	FetchScheduledPosts(ctx context.Context) ([]models.ScheduledPost, error)
	MarkExecuted(ctx context.Context, postID int64) error
}

// Reporter receives post_sent and error events.
type Reporter interface {
	Report(ctx context.Context, ev models.Event)
}

// Config controls fan-out and pacing.
type Config struct {
	Concurrency    int
	SendsPerSecond float64
	Burst          int
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.SendsPerSecond <= 0 {
		c.SendsPerSecond = 20
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	return c
}

// Result summarises one post.
type Result struct {
	PostID int64
	Sent   int
	Failed int
}

// Dispatcher runs broadcast cycles. Only one cycle runs at a time.
type Dispatcher struct {
	source   PostSource
	msgr     messenger.Messenger
	reporter Reporter
	renderer *templates.Renderer
	limiter  *rate.Limiter
	cfg      Config
	logger   *zap.Logger

	cycle sync.Mutex
}

func NewDispatcher(source PostSource, msgr messenger.Messenger, reporter Reporter,
	renderer *templates.Renderer, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Dispatcher{
		source:   source,
		msgr:     msgr,
		reporter: reporter,
		renderer: renderer,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), cfg.Burst),
		cfg:      cfg,
		logger:   logger.Named("broadcast"),
	}
}

// PollAndDispatch fetches due posts and delivers them one after another.
// A fetch failure ends the cycle without side effects.
func (d *Dispatcher) PollAndDispatch(ctx context.Context) ([]Result, error) {
	d.cycle.Lock()
	defer d.cycle.Unlock()

	posts, err := d.source.FetchScheduledPosts(ctx)
	if err != nil {
		cyclesTotal.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("fetch scheduled posts: %w", err)
	}
	cyclesTotal.WithLabelValues("ok").Inc()
	if len(posts) == 0 {
		return nil, nil
	}

	d.logger.Info("dispatching scheduled posts", zap.Int("count", len(posts)))
	results := make([]Result, 0, len(posts))
	for _, post := range posts {
		results = append(results, d.dispatch(ctx, post))
	}
	return results, nil
}

// dispatch attempts every target of post, then marks it executed exactly once.
func (d *Dispatcher) dispatch(ctx context.Context, post models.ScheduledPost) Result {
	res := Result{PostID: post.ID}
	text := post.Content
	if d.renderer != nil {
		text = d.renderer.Render(post.Content, nil)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Concurrency)
	for _, target := range post.TargetGroups {
		target := target
		g.Go(func() error {
			ok := d.sendOne(ctx, post, target, text)
			mu.Lock()
			if ok {
				res.Sent++
			} else {
				res.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := d.source.MarkExecuted(ctx, post.ID); err != nil {
		d.logger.Warn("mark executed failed", zap.Int64("post_id", post.ID), zap.Error(err))
	}
	d.logger.Info("scheduled post processed",
		zap.Int64("post_id", post.ID),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed))
	return res
}

func (d *Dispatcher) sendOne(ctx context.Context, post models.ScheduledPost, target models.ChatRef, text string) bool {
	chatID, err := target.ChatID()
	if err == nil {
		if err = d.limiter.Wait(ctx); err == nil {
			if post.HasImage() {
				_, err = d.msgr.SendPhoto(ctx, chatID, post.ImageURL, text, messenger.Markdown())
			} else {
				_, err = d.msgr.SendText(ctx, chatID, text, messenger.Markdown())
			}
		}
	}

	if err != nil {
		sendsTotal.WithLabelValues("failed").Inc()
		d.logger.Error("scheduled post send failed",
			zap.Int64("post_id", post.ID),
			zap.String("target", string(target)),
			zap.Error(err))
		utils.Warn("broadcast", "send scheduled post", fmt.Sprintf("post #%d to %s: %v", post.ID, target, err))
		d.reporter.Report(ctx, models.Event{
			Type: models.EventError,
			Data: map[string]any{
				"post_id":      post.ID,
				"error":        err.Error(),
				"target_group": string(target),
			},
			Description: fmt.Sprintf("Failed to send scheduled post #%d to %s: %v", post.ID, target, err),
		})
		return false
	}

	sendsTotal.WithLabelValues("sent").Inc()
	d.reporter.Report(ctx, models.Event{
		Type: models.EventPostSent,
		Data: map[string]any{
			"post_id":   post.ID,
			"post_type": post.PostType,
			"has_image": post.HasImage(),
		},
		ChatID:      chatID,
		Description: fmt.Sprintf("Scheduled post #%d (%s) sent successfully", post.ID, post.PostType),
	})
	return true
}
