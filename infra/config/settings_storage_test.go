package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	Providers []string `json:"providers"`
	Primary   string   `json:"primary"`
	Enabled   bool     `json:"enabled"`
}

func newTestStorage(t *testing.T) *SettingsStorage {
	t.Helper()

	storage, err := NewSettingsStorage(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage
}

func TestSaveAndLoadSetting(t *testing.T) {
	storage := newTestStorage(t)

	saved := testSettings{
		Providers: []string{"khalti", "esewa"},
		Primary:   "khalti",
		Enabled:   true,
	}
	require.NoError(t, storage.SaveSetting("payment_settings", saved))

	var loaded testSettings
	require.NoError(t, storage.LoadSetting("payment_settings", &loaded))
	assert.Equal(t, saved, loaded)
}

// Saving under an existing name replaces the record wholesale.
func TestSaveSettingReplaces(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveSetting("payment_settings", testSettings{Primary: "khalti"}))
	require.NoError(t, storage.SaveSetting("payment_settings", testSettings{Primary: "esewa"}))

	var loaded testSettings
	require.NoError(t, storage.LoadSetting("payment_settings", &loaded))
	assert.Equal(t, "esewa", loaded.Primary)
}

func TestLoadSettingNotFound(t *testing.T) {
	storage := newTestStorage(t)

	var out testSettings
	err := storage.LoadSetting("missing", &out)
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSaveSettingRejectsEmptyName(t *testing.T) {
	storage := newTestStorage(t)

	assert.Error(t, storage.SaveSetting("", testSettings{}))
}

func TestDeleteSetting(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveSetting("payment_settings", testSettings{Primary: "khalti"}))
	require.NoError(t, storage.DeleteSetting("payment_settings"))

	var out testSettings
	assert.ErrorIs(t, storage.LoadSetting("payment_settings", &out), ErrSettingNotFound)

	assert.ErrorIs(t, storage.DeleteSetting("payment_settings"), ErrSettingNotFound)
}
