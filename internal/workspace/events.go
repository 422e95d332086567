package workspace

import (
	"github.com/dshills/keystorm-sourceview/internal/event/topic"
	"github.com/dshills/keystorm-sourceview/internal/menu"
)

// Workspace event topics.
const (
	// TopicFileOpen is published whenever a file becomes the active one,
	// including when focus moves to an existing leaf.
	TopicFileOpen topic.Topic = "workspace.file.open"

	// TopicFileMenu is published when a context menu is built for a file.
	TopicFileMenu topic.Topic = "workspace.file.menu"

	// TopicFileRenamed is published after a file is renamed.
	TopicFileRenamed topic.Topic = "workspace.file.renamed"

	// TopicFileDeleted is published after a file is deleted.
	TopicFileDeleted topic.Topic = "workspace.file.deleted"
)

// FileOpen is the payload of TopicFileOpen.
type FileOpen struct {
	// File is the newly active document, nil when no document is active.
	File *Document

	// LeafID identifies the leaf that became active.
	LeafID string
}

// FileMenu is the payload of TopicFileMenu. Handlers append items to Menu.
type FileMenu struct {
	Menu *menu.Menu
	File Document
}

// FileRenamed is the payload of TopicFileRenamed.
type FileRenamed struct {
	File    Document
	OldPath string
}

// FileDeleted is the payload of TopicFileDeleted.
type FileDeleted struct {
	File Document
}
