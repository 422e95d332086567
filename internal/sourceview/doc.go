// Package sourceview remembers, per markdown document, whether it should
// open in raw source editing rather than with rendered formatting, and
// applies that preference whenever the document is activated or toggled.
//
// The durable state is a single set of document paths (PreferenceSet). It
// is loaded once when the plugin activates, changed only by toggling a
// document, and written back in full after each change. A path's membership
// is the only record of that document's preference.
//
// Applying a preference never switches a view to preview: the view is put
// into editing mode and its Source flag is set to the preference.
//
// The Tracker holds the logic and is usable on its own with any Host. The
// Plugin wires a Tracker into the editor: it listens for workspace file
// events, contributes an "Enable/Disable default source view" entry to the
// file context menu and registers the sourceview.toggle command.
package sourceview
