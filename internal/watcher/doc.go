// Package watcher watches the employee CSV file for changes with
// automatic debouncing.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify on the file's parent directory
//   - Fallback: polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Events are debounced to coalesce the write bursts spreadsheet exports
// produce, and replace-by-rename saves are reported as modifications.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, "data/employee_data.csv")
//
//	for batch := range w.Events() {
//	    for _, event := range batch {
//	        switch event.Operation {
//	        case watcher.OpCreate, watcher.OpModify:
//	            // Re-ingest the file
//	        case watcher.OpDelete:
//	            // Wait for it to come back
//	        }
//	    }
//	}
package watcher
