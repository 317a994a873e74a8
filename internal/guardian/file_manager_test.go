package guardian

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regenwasi/internal/models"
	"regenwasi/internal/services"
	"regenwasi/internal/testutil"
)

func newTestFileManager(comp *testutil.MockCompressor) (*FileManager, services.PetServiceInterface) {
	svc := services.NewPetService()
	logger := &testutil.MockLogger{}
	fm := NewFileManager(comp, svc, logger)
	return fm, svc
}

func seedPet(t *testing.T, svc services.PetServiceInterface, userID string) {
	t.Helper()
	_, err := svc.Adopt(userID, "Luna", models.AnimalAlpaca, time.Now())
	require.NoError(t, err)
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardian.bin")

	fm, svc := newTestFileManager(&testutil.MockCompressor{})
	seedPet(t, svc, "u1")

	require.NoError(t, fm.SaveToFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Temp file should not exist
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm, _ := newTestFileManager(&testutil.MockCompressor{})
	err := fm.LoadFromFile("/nonexistent/path/file.bin")
	assert.NoError(t, err) // not an error, just no data
}

func TestFileManager_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.bin")

	comp := &testutil.MockCompressor{}
	fm, svc := newTestFileManager(comp)
	seedPet(t, svc, "u1")
	require.NoError(t, svc.Earn("u1", 20, models.ActivityOther, "seed", time.Now()))
	svc.PutHubRegistration("u1", "hub-1")

	require.NoError(t, fm.SaveToFile(path))

	fm2, svc2 := newTestFileManager(comp)
	require.NoError(t, fm2.LoadFromFile(path))

	pet, ok := svc2.PeekPet("u1")
	require.True(t, ok)
	assert.Equal(t, "Luna", pet.Name)
	assert.Equal(t, 20, pet.FruitBalance)

	hubID, registered := svc2.HubRegistration("u1")
	assert.True(t, registered)
	assert.Equal(t, "hub-1", hubID)
}

func TestFileManager_LoadFromFile_V1Migration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1.bin")

	old := models.StorageV1{
		Pet:      models.NewPetRecord("Paco", models.AnimalCondor, time.Now()),
		Messages: []models.ChatMessage{{ID: "m1", Role: models.RoleUser, Text: "hola"}},
	}
	jsonData, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, jsonData, 0644))

	fm, svc := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.LoadFromFile(path))

	// The single pet lands in the guest namespace
	pet, ok := svc.PeekPet(models.GuestUserID)
	require.True(t, ok)
	assert.Equal(t, "Paco", pet.Name)

	msgs := svc.Messages(models.GuestUserID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hola", msgs[0].Text)
}

func TestFileManager_LoadFromFile_CorruptPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.bin")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	comp := &testutil.MockCompressor{
		DecompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("decompress failed")
		},
	}
	fm, svc := newTestFileManager(comp)

	// Corrupt data is treated as absence, never an error
	require.NoError(t, fm.LoadFromFile(path))
	assert.Equal(t, 0, svc.PetsTotal())
}

func TestFileManager_LoadFromFile_UnparseableJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	fm, svc := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.LoadFromFile(path))
	assert.Equal(t, 0, svc.PetsTotal())
}

func TestFileManager_SaveToFile_CompressError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "err.bin")

	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress failed")
		},
	}
	fm, svc := newTestFileManager(comp)
	seedPet(t, svc, "u1")

	err := fm.SaveToFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compress failed")
}

func TestFileManager_LoadChargesOfflineGap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gap.bin")

	storage := models.NewStorage()
	pet := models.NewPetRecord("Luna", models.AnimalAlpaca, time.Now())
	pet.LastSavedAt = time.Now().Add(-150 * time.Second)
	storage.Users["u1"] = &models.UserData{Pet: pet}

	jsonData, err := json.Marshal(storage)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, jsonData, 0644))

	fm, svc := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.LoadFromFile(path))

	loaded, ok := svc.PeekPet("u1")
	require.True(t, ok)
	assert.Equal(t, 70, loaded.Vitality)
}
