// Package session persists oracle runs as directories of files.
//
// Invariants:
// - session.json is always a complete JSON document; updates replace it whole.
// - output.log only grows; readers poll it with Tail and a remembered offset.
// - Missing or corrupt records read as ErrNotFound, never as hard failures.
// - Status moves pending -> running -> completed|error and never leaves a terminal state.
//
// Usage:
//
//	store, _ := session.NewStore("/home/me/.oracle/sessions", log.Logger)
//	rec, _ := store.Create(session.RunOptions{Prompt: "hello", Model: "gpt-5-pro"}, cwd)
//	w, _ := store.OpenLog(rec.ID)
//	defer w.Close()
//	_ = w.Line("answer")
//	delta, _ := store.Tail(rec.ID, 0)
//	_ = delta
package session
