// Package datamodel defines the immutable records describing entities,
// revisions, and the persisted diff-stream units.
package datamodel

import "time"

// EntityMeta identifies one knowledge-base entity: its page identity and
// the page-table attributes that describe it. Sourced from the dump page
// header; never mutated after construction.
type EntityMeta struct {
	EntityID  string `json:"entity_id"`
	PageID    int64  `json:"page_id"`
	Namespace int    `json:"namespace"`
	Redirect  string `json:"redirect,omitempty"`
}

// RevisionMeta identifies one revision of one entity.
type RevisionMeta struct {
	RevisionID       int64     `json:"revision_id"`
	ParentRevisionID int64     `json:"parent_revision_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Contributor      string    `json:"contributor,omitempty"`
	ContributorID    int64     `json:"contributor_id,omitempty"`
	IsMinor          bool      `json:"is_minor,omitempty"`
	Comment          string    `json:"comment,omitempty"`
	ContentModel     string    `json:"content_model"`
	ContentFormat    string    `json:"content_format,omitempty"`
	SHA1             string    `json:"sha1,omitempty"`
}

// RevisionBase is the unit addressed by the diff engine: one revision of
// one entity, without any payload.
type RevisionBase struct {
	Entity   EntityMeta   `json:"entity"`
	Revision RevisionMeta `json:"revision"`
}
