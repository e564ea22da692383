// Package notifications pushes operator notifications to ntfy.
//
// A run summary is published when a triage run completes and a high-priority
// message is published when a run fails. When no topic is configured the
// service degrades to a no-op so callers never branch on configuration.
package notifications
