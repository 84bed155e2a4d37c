// Package worker implements the routing worker lifecycle and Redis Streams integration.
//
// The worker reads routing requests from a Redis stream through a consumer
// group, resolves each one concurrently (bounded by WORKER_CONCURRENCY) and
// publishes the decision to the result stream.
//
// Request message (field "data"):
//
//	{"request_id": "r1", "user_input": "...", "intent": "...",
//	 "context": {...}, "model_config": {"model": "...", "max_tokens": 512,
//	                  "temperature": 0.2, "timeout": "15s"}}
//
// Decision message (field "data" on RESULT_STREAM):
//
//	{"request_id": "r1", "decision": "数据库查询", "reason": "...",
//	 "tools": ["db_query"], "needs_data": true, "timestamp": "..."}
//
// Requests that cannot be parsed are reported on RESULT_STREAM + ".errors".
//
// On start the worker first re-dispatches messages already delivered to its
// consumer name but never acknowledged, then switches to new messages.
// Requests aborted by a shutdown are left pending and picked up this way.
//
// Example usage:
//
//	w := worker.NewWorker(cfg, redisClient, resolver, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop(ctx)
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, w.Ready, true, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
