package service

// Package service implements the reload supervisor: it decides which file
// changes matter, debounces them and restarts the child executing the entry
// file.
//
// Overview
// The Supervisor owns an event loop and at most one child Process plus at
// most one pending reload timer. A Launcher starts the child, CommandLauncher
// does so through a Runner.
//
// Runner is a thin, opinionated wrapper around os/exec:
//   - starts the process with stdin, stdout and stderr inherited
//   - terminates it on request without waiting (SIGTERM, kill on windows)
//   - exposes a channel of Result values
//
// Data flow:
//
//   watch.Watcher        Supervisor                 Runner{cmd}
//       |                    |                          |
//       | Event ----------->| Classifier.Classify      |
//       |                    |  (imports.Finder)        |
//       |                    | schedule: timer reset    |
//       |                    | timer fired:             |
//       |                    |   Terminate() ---------->| SIGTERM, no wait
//       |                    |   Launch() ------------->| os/exec.Start + Wait() in goroutine
//       |                    |<------ Result -----------| (process exits)
//
// Invariants:
//   - At most one pending reload; a newer relevant change replaces the timer and its reason.
//   - At most one current child; a restart terminates it before launching the next.
//   - Only the exit of the current child is reported; exits of replaced children are dropped.
//   - A failed run is never restarted automatically, only a relevant change restarts it.
//
// internal/service/service_test.go shows how the Supervisor is wired with a
// fake Launcher.
