package interfaces

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	dll := []byte("\x00\x01SteamClient017\x00SteamUser019\x00junk SteamUser019\x00" +
		"STEAMHTMLSURFACE_INTERFACE_VERSION_005\x00STEAMCONTROLLER_INTERFACE_VERSION\x00SteamUser1\x00")

	assert.Equal(t, []string{
		"STEAMCONTROLLER_INTERFACE_VERSION",
		"STEAMHTMLSURFACE_INTERFACE_VERSION_005",
		"SteamClient017",
		"SteamUser019",
	}, Find(dll))
}

func TestFind_VersionedControllerWins(t *testing.T) {
	dll := []byte("STEAMCONTROLLER_INTERFACE_VERSION\x00STEAMCONTROLLER_INTERFACE_VERSION008\x00")
	assert.Equal(t, []string{"STEAMCONTROLLER_INTERFACE_VERSION008"}, Find(dll))
}

func TestGenerate(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	dir := t.TempDir()
	dll := filepath.Join(dir, "steam_api_o.dll")
	require.NoError(t, os.WriteFile(dll, []byte("SteamUtils009\x00SteamFriends017"), 0o644))

	out, err := Generate(dll, log)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "SteamFriends017\nSteamUtils009\n", string(b))
}

func TestGenerate_NothingFound(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	dll := filepath.Join(t.TempDir(), "steam_api.dll")
	require.NoError(t, os.WriteFile(dll, []byte("plain bytes"), 0o644))

	_, err := Generate(dll, log)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dll), FileName))
}
