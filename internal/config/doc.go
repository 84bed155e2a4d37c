// Package config provides configuration management for the routing worker.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development; only
// LLM_API_KEY must be supplied for model-backed routing.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resolver := router.NewResolver(invoker, logger, router.WithDefaults(cfg.ModelDefaults()))
package config
