// Package settings persists the global Goldberg emulator settings shared by
// every configured game: account name, SteamID, language, the experimental
// flag and the custom broadcast list.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kirsle/configdir"
	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

const (
	DefaultAccountName        = "Mr_Goldberg"
	DefaultSteamID     uint64 = 76561197960287930
	DefaultLanguage           = "english"

	// Individual account range of the public universe.
	MinSteamID uint64 = 76561197960265729
	MaxSteamID uint64 = 76561202255233023

	rootFolder = "Goldberg SteamEmu Saves"
)

const (
	accountNameFile  = "account_name.txt"
	steamIDFile      = "user_steam_id.txt"
	languageFile     = "language.txt"
	experimentalFile = "experimental.txt"
	broadcastsFile   = "custom_broadcasts.txt"
)

var languages = []string{
	DefaultLanguage,
	"arabic",
	"bulgarian",
	"schinese",
	"tchinese",
	"czech",
	"danish",
	"dutch",
	"finnish",
	"french",
	"german",
	"greek",
	"hungarian",
	"italian",
	"japanese",
	"koreana",
	"norwegian",
	"polish",
	"portuguese",
	"brazilian",
	"romanian",
	"russian",
	"spanish",
	"swedish",
	"thai",
	"turkish",
	"ukrainian",
}

// Global is the emulator-wide configuration.
type Global struct {
	AccountName        string
	UserSteamID        uint64
	Language           string
	Experimental       bool
	CustomBroadcastIPs []string
}

// Defaults returns the configuration used when nothing is stored yet.
func Defaults() Global {
	return Global{
		AccountName: DefaultAccountName,
		UserSteamID: DefaultSteamID,
		Language:    DefaultLanguage,
	}
}

// Languages lists the languages the emulator understands, default first.
func Languages() []string {
	return slices.Clone(languages)
}

func ValidLanguage(lang string) bool {
	return slices.Contains(languages, lang)
}

func ValidSteamID(id uint64) bool {
	return id >= MinSteamID && id <= MaxSteamID
}

// DefaultRoot is the per-user directory the emulator reads its saves and
// global settings from.
func DefaultRoot() string {
	return configdir.LocalConfig(rootFolder)
}

// Store reads and writes the global settings under <root>/settings.
type Store struct {
	root string
	log  logrus.FieldLogger
}

func NewStore(root string, log logrus.FieldLogger) *Store {
	return &Store{root: root, log: log}
}

func (s *Store) Dir() string { return filepath.Join(s.root, "settings") }

func (s *Store) path(name string) string { return filepath.Join(s.Dir(), name) }

// Load parses every settings file from disk. Missing or unreadable files fall
// back to their defaults; only failing to create the settings directory is
// an error.
func (s *Store) Load() (Global, error) {
	s.log.Info("Getting global settings...")
	if err := configdir.MakePath(s.Dir()); err != nil {
		return Global{}, fmt.Errorf("create settings dir: %w", err)
	}

	g := Defaults()
	if v, ok := s.firstLine(accountNameFile); ok && v != "" {
		g.AccountName = v
	}
	if v, ok := s.firstLine(steamIDFile); ok {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || !ValidSteamID(id) {
			s.log.WithField("value", v).Warn("Invalid User Steam ID! Using default Steam ID...")
		} else {
			g.UserSteamID = id
		}
	}
	if v, ok := s.firstLine(languageFile); ok && v != "" {
		if ValidLanguage(v) {
			g.Language = v
		} else {
			s.log.WithField("value", v).Warn("Unknown language! Using default language...")
		}
	}
	g.Experimental = s.Experimental()

	lines, err := fsutil.ReadLines(s.path(broadcastsFile))
	if err != nil {
		s.log.WithError(err).Warn("Could not read custom broadcast IPs")
	}
	g.CustomBroadcastIPs = cleanList(lines)

	s.log.Info("Got global settings.")
	return g, nil
}

// Experimental re-reads only the experimental flag.
func (s *Store) Experimental() bool {
	v, ok := s.firstLine(experimentalFile)
	return ok && v == "true"
}

// Normalize replaces an empty account name, an out-of-range SteamID and an
// unknown language with their defaults, and drops blank broadcast IPs.
func Normalize(g Global) Global {
	g.AccountName = strings.TrimSpace(g.AccountName)
	if g.AccountName == "" {
		g.AccountName = DefaultAccountName
	}
	if !ValidSteamID(g.UserSteamID) {
		g.UserSteamID = DefaultSteamID
	}
	g.Language = strings.TrimSpace(g.Language)
	if !ValidLanguage(g.Language) {
		g.Language = DefaultLanguage
	}
	g.CustomBroadcastIPs = cleanList(g.CustomBroadcastIPs)
	return g
}

// Save pins every setting to either the supplied value or its default (see
// Normalize). An empty broadcast list removes the broadcast file instead.
// Files are written one by one; a failure leaves the earlier ones updated.
func (s *Store) Save(g Global) error {
	s.log.Info("Setting global settings...")
	if err := fsutil.EnsureDir(s.Dir()); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	n := Normalize(g)
	if n.AccountName != strings.TrimSpace(g.AccountName) {
		s.log.Info("Invalid account name! Using default...")
	}
	if n.UserSteamID != g.UserSteamID {
		s.log.WithField("value", g.UserSteamID).Info("Invalid user Steam ID! Using default...")
	}
	if n.Language != strings.TrimSpace(g.Language) {
		s.log.WithField("value", g.Language).Info("Invalid language! Using default...")
	}

	if err := s.write(accountNameFile, n.AccountName); err != nil {
		return err
	}
	if err := s.write(steamIDFile, strconv.FormatUint(n.UserSteamID, 10)); err != nil {
		return err
	}
	if err := s.write(languageFile, n.Language); err != nil {
		return err
	}
	if err := s.write(experimentalFile, strconv.FormatBool(n.Experimental)); err != nil {
		return err
	}

	ips := n.CustomBroadcastIPs
	if len(ips) == 0 {
		s.log.Info("Empty list of custom broadcast IPs! Removing file...")
		if err := fsutil.RemoveIfExists(s.path(broadcastsFile)); err != nil {
			return fmt.Errorf("remove %s: %w", broadcastsFile, err)
		}
		return nil
	}
	return s.write(broadcastsFile, strings.Join(ips, "\n")+"\n")
}

func (s *Store) write(name, content string) error {
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) firstLine(name string) (string, bool) {
	v, ok, err := fsutil.FirstLine(s.path(name))
	if err != nil {
		s.log.WithError(err).WithField("file", name).Warn("Could not read setting, using default")
		return "", false
	}
	return v, ok
}

func cleanList(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
