// Package history keeps a local record of appliance entity values and of
// the commands sent to appliances.
//
// The Recorder observes reconciled batches and writes a row only when an
// entity's value differs from the last one recorded, so a full-state poll
// that changes nothing writes nothing. Rows live in SQLite
// (entity_state_history and command_log, see migrations/).
//
// Usage:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	rec := history.NewRecorder(repo, registry)
//	reconciler.AddObserver(rec)
//	go history.RunPruner(ctx, repo, cfg.HistoryRetention(), time.Hour, log)
package history
