package interfaces

import "lfd/internal/models"

// ArchiverInterface moves idle lectures out of memory and back.
// Restore has move semantics: a restored lecture is removed from the
// archive.
type ArchiverInterface interface {
	Archive(lecture string, data *models.LectureData) error
	Restore(lecture string) (*models.LectureData, bool, error)
	Close() error
}
