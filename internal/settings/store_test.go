package settings

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewStore(t.TempDir(), log)
}

func TestLoad_DefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	g, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), g)
	assert.DirExists(t, s.Dir())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := Global{
		AccountName:        "player",
		UserSteamID:        76561198000000000,
		Language:           "german",
		Experimental:       true,
		CustomBroadcastIPs: []string{"192.168.1.255", "10.0.0.255"},
	}

	require.NoError(t, s.Save(in))
	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveLoad_SteamIDBounds(t *testing.T) {
	tests := []struct {
		name string
		id   uint64
		want uint64
	}{
		{"lower bound", MinSteamID, MinSteamID},
		{"upper bound", MaxSteamID, MaxSteamID},
		{"below range", MinSteamID - 1, DefaultSteamID},
		{"above range", MaxSteamID + 1, DefaultSteamID},
		{"zero", 0, DefaultSteamID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			g := Defaults()
			g.UserSteamID = tt.id

			require.NoError(t, s.Save(g))
			raw, err := os.ReadFile(filepath.Join(s.Dir(), steamIDFile))
			require.NoError(t, err)
			loaded, err := s.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.want, loaded.UserSteamID)
			assert.NotEmpty(t, string(raw))
		})
	}
}

func TestLoad_UnparsableSteamIDFallsBack(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), steamIDFile), []byte("not-a-number\n"), 0o644))

	g, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSteamID, g.UserSteamID)
}

func TestSave_InvalidValuesPinDefaults(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(Global{AccountName: "  ", Language: "klingon"}))
	g, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAccountName, g.AccountName)
	assert.Equal(t, DefaultLanguage, g.Language)
	assert.Equal(t, DefaultSteamID, g.UserSteamID)
	assert.False(t, g.Experimental)
	for _, name := range []string{accountNameFile, steamIDFile, languageFile, experimentalFile} {
		assert.FileExists(t, filepath.Join(s.Dir(), name))
	}
}

func TestSave_EmptyBroadcastListDeletesFile(t *testing.T) {
	s := newTestStore(t)
	g := Defaults()
	g.CustomBroadcastIPs = []string{"10.0.0.255"}
	require.NoError(t, s.Save(g))
	require.FileExists(t, filepath.Join(s.Dir(), broadcastsFile))

	g.CustomBroadcastIPs = nil
	require.NoError(t, s.Save(g))
	assert.NoFileExists(t, filepath.Join(s.Dir(), broadcastsFile))

	// deleting again is a no-op
	require.NoError(t, s.Save(g))
}

func TestExperimental_RereadsFromDisk(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Experimental())

	g := Defaults()
	g.Experimental = true
	require.NoError(t, s.Save(g))
	assert.True(t, s.Experimental())
}

func TestLanguages_DefaultFirst(t *testing.T) {
	langs := Languages()
	require.NotEmpty(t, langs)
	assert.Equal(t, DefaultLanguage, langs[0])
	assert.Contains(t, langs, "schinese")

	langs[0] = "changed"
	assert.Equal(t, DefaultLanguage, Languages()[0])
}

func TestNormalize(t *testing.T) {
	got := Normalize(Global{
		AccountName:        "  ",
		UserSteamID:        0,
		Language:           "klingon",
		Experimental:       true,
		CustomBroadcastIPs: []string{" 10.0.0.2 ", "", "  "},
	})
	assert.Equal(t, Global{
		AccountName:        DefaultAccountName,
		UserSteamID:        DefaultSteamID,
		Language:           DefaultLanguage,
		Experimental:       true,
		CustomBroadcastIPs: []string{"10.0.0.2"},
	}, got)

	valid := Global{AccountName: "player", UserSteamID: MinSteamID, Language: "german"}
	assert.Equal(t, valid, Normalize(valid))
}
