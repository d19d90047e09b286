package lecture

import (
	"os"
	"time"

	json "github.com/goccy/go-json"

	"lfd/internal/lecture/interfaces"
	"lfd/internal/models"
	"lfd/internal/providers"
	"lfd/internal/services"
)

// FileManager persists the full in-memory state (events and flat
// comment lists per lecture) as one compressed JSON snapshot.
type FileManager struct {
	feedback   services.FeedbackServiceInterface
	discussion services.DiscussionServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, feedback services.FeedbackServiceInterface, discussion services.DiscussionServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		feedback:   feedback,
		discussion: discussion,
		logger:     logger,
	}
}

func (f *FileManager) snapshot() *models.Storage {
	storage := &models.Storage{
		Version:  models.StorageVersion,
		Lectures: make(map[string]*models.LectureData),
	}

	now := time.Now()
	for _, lec := range f.feedback.GetLectures() {
		storage.Lectures[lec] = &models.LectureData{
			Events:   f.feedback.GetEvents(lec),
			Comments: make([]*models.Comment, 0),
			LastSeen: now,
		}
	}
	for _, lec := range f.discussion.GetLectures() {
		ld := storage.Lectures[lec]
		if ld == nil {
			ld = &models.LectureData{
				Events:   make([]*models.FeedbackEvent, 0),
				LastSeen: now,
			}
			storage.Lectures[lec] = ld
		}
		ld.Comments = f.discussion.GetComments(lec)
	}
	return storage
}

func (f *FileManager) SaveToFile(fileName string) error {
	jsonData, err := json.Marshal(f.snapshot())
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) restoreLecture(lec string, ld *models.LectureData) {
	if len(ld.Events) > 0 {
		f.feedback.PutLectureEvents(lec, ld.Events)
	}
	if len(ld.Comments) > 0 {
		if err := f.discussion.PutLectureComments(lec, ld.Comments); err != nil {
			f.logger.Warnf(providers.TypeApp, "Lecture %s: dropped bad comments during restore: %s", lec, err)
		}
	}
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	// Current format: versioned envelope
	var storage models.Storage
	if err := json.Unmarshal(decompressedData, &storage); err == nil && storage.Lectures != nil {
		for lec, ld := range storage.Lectures {
			f.restoreLecture(lec, ld)
		}
		return nil
	}

	// Old format v1: bare lecture map without envelope
	f.logger.Warnf(providers.TypeApp, "Inconsistent DB found, try to migrate from old data format")
	var lectures map[string]*models.LectureData
	if err := json.Unmarshal(decompressedData, &lectures); err != nil || lectures == nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return err
	}
	for lec, ld := range lectures {
		f.restoreLecture(lec, ld)
	}
	f.logger.Warnf(providers.TypeApp, "Migration from v1 format successful")
	return nil
}
