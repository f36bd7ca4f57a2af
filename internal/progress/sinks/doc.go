// Package sinks implements concrete progress observers backed by structured
// logging and Prometheus collectors.
package sinks
