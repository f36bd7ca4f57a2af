// Package api hosts the optional status server that runs beside a scrape.
// Notable routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping of the run registry.
//   - GET /v1/run for the live run snapshot kept by RunStatus.
//   - GET /v1/run/companies/{company} for a single company's progress.
package api
