// Package interfaces writes steam_interfaces.txt, the list of Steam API
// interface versions an original steam_api DLL was built against.
package interfaces

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

const FileName = "steam_interfaces.txt"

var names = []string{
	"SteamClient",
	"SteamGameServer",
	"SteamGameServerStats",
	"SteamUser",
	"SteamFriends",
	"SteamUtils",
	"SteamMatchMaking",
	"SteamMatchMakingServers",
	"STEAMUSERSTATS_INTERFACE_VERSION",
	"STEAMAPPS_INTERFACE_VERSION",
	"SteamNetworking",
	"STEAMREMOTESTORAGE_INTERFACE_VERSION",
	"STEAMSCREENSHOTS_INTERFACE_VERSION",
	"STEAMHTTP_INTERFACE_VERSION",
	"STEAMUNIFIEDMESSAGES_INTERFACE_VERSION",
	"STEAMUGC_INTERFACE_VERSION",
	"STEAMAPPLIST_INTERFACE_VERSION",
	"STEAMMUSIC_INTERFACE_VERSION",
	"STEAMMUSICREMOTE_INTERFACE_VERSION",
	"STEAMHTMLSURFACE_INTERFACE_VERSION_",
	"STEAMINVENTORY_INTERFACE_V",
	"SteamController",
	"SteamMasterServerUpdater",
	"STEAMVIDEO_INTERFACE_V",
}

var (
	versioned = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(names))
		for i, n := range names {
			out[i] = regexp.MustCompile(regexp.QuoteMeta(n) + `\d{3}`)
		}
		return out
	}()

	controllerVersioned = regexp.MustCompile(`STEAMCONTROLLER_INTERFACE_VERSION\d{3}`)
	controllerPlain     = regexp.MustCompile(`STEAMCONTROLLER_INTERFACE_VERSION`)
)

// Find returns the sorted, unique interface versions mentioned in content.
func Find(content []byte) []string {
	seen := map[string]struct{}{}
	add := func(re *regexp.Regexp) bool {
		found := false
		for _, m := range re.FindAll(content, -1) {
			seen[string(m)] = struct{}{}
			found = true
		}
		return found
	}
	for _, re := range versioned {
		add(re)
	}
	if !add(controllerVersioned) {
		add(controllerPlain)
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Generate scans dllPath and writes steam_interfaces.txt next to it.
func Generate(dllPath string, log logrus.FieldLogger) (string, error) {
	log.WithField("dll", dllPath).Debug("Generating interfaces file")
	content, err := os.ReadFile(dllPath)
	if err != nil {
		return "", err
	}
	found := Find(content)
	if len(found) == 0 {
		return "", fmt.Errorf("no steam interfaces found in %s", filepath.Base(dllPath))
	}

	out := filepath.Join(filepath.Dir(dllPath), FileName)
	if err := os.WriteFile(out, []byte(strings.Join(found, "\n")+"\n"), 0o644); err != nil {
		return "", err
	}
	log.WithField("count", len(found)).Info("Wrote " + FileName)
	return out, nil
}
