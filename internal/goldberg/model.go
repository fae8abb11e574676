package goldberg

import (
	"errors"
	"fmt"
)

// Configuration is the per-game emulator setup of one game directory.
type Configuration struct {
	// AppID is -1 while unknown.
	AppID             int
	Achievements      []Achievement
	DLCs              []DlcApp
	ExperimentalNow   bool
	Offline           bool
	DisableNetworking bool
	DisableOverlay    bool
}

// NewConfiguration returns an empty configuration with an unset AppID.
func NewConfiguration() Configuration {
	return Configuration{AppID: -1}
}

// Achievement mirrors one entry of steam_settings/achievements.json.
type Achievement struct {
	ID          string `json:"name"`
	Name        string `json:"displayName"`
	Description string `json:"description"`
	Hidden      int    `json:"hidden"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icon_gray"`
}

type DlcApp struct {
	AppID   int
	Name    string
	AppPath string
}

func (d DlcApp) String() string {
	return fmt.Sprintf("%d=%s", d.AppID, d.Name)
}

var (
	// ErrUnknownDlc is returned when app_paths.txt names an AppID that is not
	// in the DLC list.
	ErrUnknownDlc = errors.New("app path references unknown DLC")

	// ErrDllMissing marks a staging failure that left the game directory
	// without its Steam API DLL. The user has to restore it manually.
	ErrDllMissing = errors.New("steam api dll missing after failed install")
)

// StagingError reports a failed DLL swap.
type StagingError struct {
	DLL     string
	Op      string
	Missing bool
	Err     error
}

func (e *StagingError) Error() string {
	msg := fmt.Sprintf("stage %s: %s: %v", e.DLL, e.Op, e.Err)
	if e.Missing {
		msg += " (original DLL was moved away, restore it manually)"
	}
	return msg
}

func (e *StagingError) Unwrap() error { return e.Err }

func (e *StagingError) Is(target error) bool {
	return e.Missing && target == ErrDllMissing
}
