// Package topic provides dotted, hierarchical event names and wildcard
// pattern matching for the event bus.
//
// Patterns use "*" for exactly one segment and "**" for any number of
// segments, so "workspace.file.*" matches "workspace.file.open" and
// "workspace.**" matches every workspace event.
package topic
