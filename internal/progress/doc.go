// Package progress provides the event primitives and the Observer interface
// that the scraper uses to report run, company, and page milestones. The
// concrete reporters (structured logs, Prometheus metrics) live in sinks and
// are chosen by configuration; Nop is used when nothing is configured.
package progress
