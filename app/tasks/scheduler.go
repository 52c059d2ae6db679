package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avdmnk/daypost/app/bsky"
	"github.com/avdmnk/daypost/app/cfg"
	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/post"
	"github.com/avdmnk/daypost/app/store"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler fires one publish cycle per interval. A single worker plus the
// in-flight guard means runs never overlap: a tick that lands while a run
// is still going is skipped, not queued behind it.
type Scheduler struct {
	source    DigestSource
	segmenter *digest.Segmenter
	sanitizer *digest.Sanitizer
	composer  *post.Composer
	facets    *post.Builder
	client    bsky.Client
	articles  store.ArticleRepository
	posts     store.PostRepository
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inFlight  atomic.Bool
	taskQueue chan TaskInterface
}

func NewScheduler(source DigestSource, segmenter *digest.Segmenter, sanitizer *digest.Sanitizer,
	composer *post.Composer, facets *post.Builder, client bsky.Client,
	articles store.ArticleRepository, posts store.PostRepository) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		source:    source,
		segmenter: segmenter,
		sanitizer: sanitizer,
		composer:  composer,
		facets:    facets,
		client:    client,
		articles:  articles,
		posts:     posts,
		interval:  time.Duration(cfg.SchedulerInterval) * time.Second,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 16),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueuePublishTask()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueuePublishTask()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueuePublishTask() {
	if s.inFlight.Load() {
		slog.Warn("Previous publish run still in flight, skipping this tick")
		return
	}

	task := NewPublishDigestTask(s.source, s.segmenter, s.sanitizer, s.composer, s.facets,
		s.client, s.articles, s.posts)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue PublishDigestTask", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked by the WaitGroup so Stop cannot close the queue while a
			// retry is about to enqueue.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
