// Package worker implements the field worker lifecycle and Redis Streams integration.
//
// The worker reads evaluation jobs from a Redis stream, evaluates the job's
// task on the selected inventory hosts and publishes the resolved fields back.
//
// A job entry carries a JSON "data" field:
//
//	{"job_id": "j-1", "task": "shell:\n  cmd: uptime\n", "hosts": ["web"], "mode": "check"}
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	inv, _ := inventory.LoadFile(cfg.InventoryPath)
//	playCtx := playbook.NewDefaultContext(logger)
//	playCtx.SetInventory(inv)
//
//	w, err := worker.NewWorker(cfg, redisClient, inv, playCtx, afero.NewOsFs(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Results go to RESULT_STREAM; jobs that cannot be parsed or evaluated go to
// RESULT_STREAM.errors.
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, inv, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
