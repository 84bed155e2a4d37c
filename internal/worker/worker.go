package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aescanero/dago-node-intent-router/internal/config"
	"github.com/aescanero/dago-node-intent-router/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver produces a routing decision for a request
type Resolver interface {
	Resolve(ctx context.Context, req router.RoutingRequest) router.Decision
}

// Worker consumes routing requests from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	resolver      Resolver
	logger        *zap.Logger
	streamKey     string
	consumerGroup string
	resultStream  string

	// readCtx stops the read loop; workCtx aborts in-flight resolutions
	readCtx   context.Context
	stopRead  context.CancelFunc
	workCtx   context.Context
	abortWork context.CancelFunc
	loopDone  chan struct{}
	inFlight  errgroup.Group
	started   bool
	ready     atomic.Bool
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	resolver Resolver,
	logger *zap.Logger,
) *Worker {
	readCtx, stopRead := context.WithCancel(context.Background())
	workCtx, abortWork := context.WithCancel(context.Background())

	w := &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		resolver:      resolver,
		logger:        logger,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
		readCtx:       readCtx,
		stopRead:      stopRead,
		workCtx:       workCtx,
		abortWork:     abortWork,
		loopDone:      make(chan struct{}),
	}
	w.inFlight.SetLimit(cfg.WorkerConcurrency)

	return w
}

// Start creates the consumer group and starts the read loop
func (w *Worker) Start() error {
	w.logger.Info("starting routing worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
		zap.Int("concurrency", w.config.WorkerConcurrency),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.started = true
	go w.processWork()
	w.ready.Store(true)

	w.logger.Info("routing worker started", zap.String("worker_id", w.id))
	return nil
}

// Ready reports whether the worker is consuming requests
func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// Stop stops reading and waits for in-flight requests. If ctx expires first,
// in-flight resolutions are cancelled and their messages stay pending.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping routing worker", zap.String("worker_id", w.id))
	w.ready.Store(false)
	w.stopRead()

	if !w.started {
		w.abortWork()
		return nil
	}

	done := make(chan struct{})
	go func() {
		<-w.loopDone
		_ = w.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.abortWork()
		w.logger.Info("routing worker stopped", zap.String("worker_id", w.id))
		return nil
	case <-ctx.Done():
		w.abortWork()
		<-done
		return fmt.Errorf("in-flight requests aborted: %w", ctx.Err())
	}
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.readCtx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads the stream and dispatches messages until stopped
func (w *Worker) processWork() {
	defer close(w.loopDone)
	w.recoverPending()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.readCtx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
		}

		streams, err := w.redisClient.XReadGroup(w.readCtx, &redis.XReadGroupArgs{
			Group:    w.consumerGroup,
			Consumer: w.id,
			Streams:  []string{w.streamKey, ">"},
			Count:    int64(w.config.WorkerConcurrency),
			Block:    w.config.BlockTime,
		}).Result()

		if err != nil {
			if err == redis.Nil || w.readCtx.Err() != nil {
				continue
			}
			w.logger.Error("failed to read from stream",
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				// Blocks while the concurrency limit is reached
				w.inFlight.Go(func() error {
					w.handleMessage(message)
					return nil
				})
			}
		}
	}
}

// recoverPending re-dispatches messages delivered to this consumer that were
// never acknowledged, e.g. requests aborted by a previous shutdown
func (w *Worker) recoverPending() {
	lastID := "0"
	recovered := 0

	for w.readCtx.Err() == nil {
		streams, err := w.redisClient.XReadGroup(w.readCtx, &redis.XReadGroupArgs{
			Group:    w.consumerGroup,
			Consumer: w.id,
			Streams:  []string{w.streamKey, lastID},
			Count:    int64(w.config.WorkerConcurrency),
			Block:    -1,
		}).Result()
		if err != nil {
			if err != redis.Nil && w.readCtx.Err() == nil {
				w.logger.Error("failed to read pending messages", zap.Error(err))
			}
			break
		}

		dispatched := 0
		for _, stream := range streams {
			for _, message := range stream.Messages {
				if message.ID == lastID {
					continue
				}
				lastID = message.ID
				dispatched++
				w.inFlight.Go(func() error {
					w.handleMessage(message)
					return nil
				})
			}
		}
		if dispatched == 0 {
			break
		}
		recovered += dispatched
	}

	if recovered > 0 {
		w.logger.Info("recovered pending messages",
			zap.String("worker_id", w.id),
			zap.Int("count", recovered),
		)
	}
}

// handleMessage resolves a single routing request and publishes the decision
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Debug("processing routing request",
		zap.String("message_id", messageID),
	)

	request, err := parseWorkRequest(message.Values)
	if err != nil {
		requestID := ""
		if request != nil {
			requestID = request.RequestID
		}
		w.logger.Error("failed to parse work request",
			zap.String("message_id", messageID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		w.publishError(messageID, requestID, err)
		w.acknowledgeMessage(messageID)
		return
	}

	decision := w.resolver.Resolve(w.workCtx, request.routing)

	if w.workCtx.Err() != nil {
		w.logger.Warn("routing aborted by shutdown, leaving message pending",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
		)
		return
	}

	if err := w.publishDecision(request.RequestID, decision); err != nil {
		w.logger.Error("failed to publish routing decision",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		w.publishError(messageID, request.RequestID, err)
	}

	w.acknowledgeMessage(messageID)
}

// publishDecision publishes the routing decision
func (w *Worker) publishDecision(requestID string, decision router.Decision) error {
	data, err := json.Marshal(newDecisionEvent(requestID, decision, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	_, err = w.redisClient.XAdd(w.workCtx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published routing decision",
		zap.String("request_id", requestID),
		zap.String("decision", string(decision.Label)),
	)

	return nil
}

// publishError publishes an error event to the error stream
func (w *Worker) publishError(messageID, requestID string, err error) {
	data, marshalErr := json.Marshal(ErrorEvent{
		MessageID: messageID,
		RequestID: requestID,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	_, publishErr := w.redisClient.XAdd(w.workCtx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.workCtx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
