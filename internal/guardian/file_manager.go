package guardian

import (
	"os"
	"time"

	json "github.com/goccy/go-json"

	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
)

type FileManager struct {
	service    services.PetServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.PetServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	storage := f.service.Snapshot(time.Now())

	jsonData, err := json.Marshal(storage)
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

// LoadFromFile restores the user namespaces from disk. A missing file means a
// fresh start; a corrupt payload is treated as absence, never an error.
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
		f.logger.Warnf(providers.TypeApp, "Corrupt data file, starting empty: %s", err)
		return nil
	}

	now := time.Now()

	// Current format: versioned envelope with per-user namespaces
	var storage models.Storage
	if err := json.Unmarshal(decompressedData, &storage); err == nil && storage.Users != nil {
		f.service.Restore(&storage, now)
		return nil
	}

	// Legacy format: a single pet without namespacing, moved to guest once
	f.logger.Warnf(providers.TypeApp, "Inconsistent data file found, try to migrate from old format")
	var old models.StorageV1
	if err := json.Unmarshal(decompressedData, &old); err == nil && old.Pet != nil {
		f.logger.Warnf(providers.TypeApp, "Migration from v1 format successful")
		migrated := models.NewStorage()
		migrated.Users[models.GuestUserID] = &models.UserData{
			Pet:      old.Pet,
			Messages: old.Messages,
			Memories: old.Memories,
		}
		f.service.Restore(migrated, now)
		return nil
	}

	f.logger.Warnf(providers.TypeApp, "Migration failed, starting empty")
	return nil
}
