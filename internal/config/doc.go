// Package config provides configuration management for the field worker.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development; RUN_MODE
// defaults to syntax so a misconfigured worker never evaluates for real.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
