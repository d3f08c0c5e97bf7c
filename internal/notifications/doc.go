// Package notifications delivers transient job notices.
//
// Notices are never stored. The console notifier prints a one-line notice to
// the terminal; the ntfy notifier pushes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event kind can
// be switched off in the [notifications] section.
package notifications
