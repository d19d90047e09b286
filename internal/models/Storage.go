package models

import "time"

// StorageVersion is the current snapshot format. Version 1 had no
// envelope (a bare lecture map without last-seen tracking).
const StorageVersion = 2

// LectureData is the persisted state of one lecture: raw events sorted
// by timestamp and flat comments in ingest order. The comment tree is
// not persisted; it is rebuilt by re-ingesting Comments on restore.
type LectureData struct {
	Events   []*FeedbackEvent `json:"events"`
	Comments []*Comment       `json:"comments"`
	LastSeen time.Time        `json:"last_seen"`
}

// Storage is the snapshot envelope written by the file manager.
type Storage struct {
	Version  int                     `json:"version"`
	Lectures map[string]*LectureData `json:"lectures"`
}
