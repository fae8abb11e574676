package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
	"github.com/SiirRandall/goldberg-manager/internal/goldberg"
	"github.com/SiirRandall/goldberg-manager/internal/install"
	"github.com/SiirRandall/goldberg-manager/internal/interfaces"
	"github.com/SiirRandall/goldberg-manager/internal/settings"
	"github.com/SiirRandall/goldberg-manager/internal/steam"
)

// Deps are the services the window drives.
type Deps struct {
	Log      *logrus.Logger
	Settings *settings.Store
	Writer   *goldberg.Writer
	Updater  *install.Updater
	// NewSteam builds the metadata client once an API key is known.
	NewSteam func(apiKey string) (*steam.Client, error)
	APIKey   string
}

// read-only entry helpers (theme-friendly, no SetReadOnly in Fyne v2.7)
var (
	roMu   sync.Mutex
	roLast = map[*widget.Entry]string{}
)

func makeReadOnlyEntry(e *widget.Entry) {
	e.Wrapping = fyne.TextWrapWord
	e.TextStyle = fyne.TextStyle{Monospace: true}
	e.OnChanged = func(s string) {
		roMu.Lock()
		last := roLast[e]
		roMu.Unlock()
		if s != last {
			fyne.Do(func() {
				onchg := e.OnChanged
				e.OnChanged = nil
				e.SetText(last)
				e.CursorColumn = 0
				e.CursorRow = strings.Count(e.Text, "\n")
				e.OnChanged = onchg
			})
		}
	}
}

func setEntryText(e *widget.Entry, s string) {
	fyne.Do(func() { replaceText(e, s) })
}

// replaceText must run on the UI goroutine.
func replaceText(e *widget.Entry, s string) {
	onchg := e.OnChanged
	e.OnChanged = nil
	e.SetText(s)
	e.CursorColumn = 0
	e.CursorRow = strings.Count(e.Text, "\n")
	e.OnChanged = onchg
	roMu.Lock()
	roLast[e] = s
	roMu.Unlock()
}

// appendLine reads and extends the text in one UI callback so concurrent
// log lines cannot overwrite each other.
func appendLine(e *widget.Entry, ts time.Time, msg string) {
	fyne.Do(func() { replaceText(e, e.Text+formatLine(ts, msg)) })
}

func runOnUI(fn func()) { fyne.Do(fn) }

// form holds the widgets that mirror settings.Global and goldberg.Configuration.
type form struct {
	account    *widget.Entry
	steamID    *widget.Entry
	language   *widget.Select
	experiment *widget.Check
	broadcasts *widget.Entry

	appID      *widget.Entry
	offline    *widget.Check
	networking *widget.Check
	overlay    *widget.Check
	achLabel   *widget.Label
	dlcList    *widget.List

	// cfg is only touched on the UI goroutine.
	cfg goldberg.Configuration
}

func (f *form) global() settings.Global {
	id, _ := strconv.ParseUint(strings.TrimSpace(f.steamID.Text), 10, 64)
	var ips []string
	for _, l := range strings.Split(f.broadcasts.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			ips = append(ips, l)
		}
	}
	return settings.Global{
		AccountName:        strings.TrimSpace(f.account.Text),
		UserSteamID:        id,
		Language:           f.language.Selected,
		Experimental:       f.experiment.Checked,
		CustomBroadcastIPs: ips,
	}
}

func (f *form) setGlobal(g settings.Global) {
	f.account.SetText(g.AccountName)
	f.steamID.SetText(strconv.FormatUint(g.UserSteamID, 10))
	f.language.SetSelected(g.Language)
	f.experiment.SetChecked(g.Experimental)
	f.broadcasts.SetText(strings.Join(g.CustomBroadcastIPs, "\n"))
}

// configuration folds the editable widgets into the loaded configuration.
func (f *form) configuration() (goldberg.Configuration, error) {
	c := f.cfg
	id, err := strconv.Atoi(strings.TrimSpace(f.appID.Text))
	if err != nil || id <= 0 {
		return c, fmt.Errorf("invalid AppID %q", f.appID.Text)
	}
	c.AppID = id
	c.ExperimentalNow = f.experiment.Checked
	c.Offline = f.offline.Checked
	c.DisableNetworking = f.networking.Checked
	c.DisableOverlay = f.overlay.Checked
	return c, nil
}

func (f *form) setConfiguration(c goldberg.Configuration) {
	f.cfg = c
	if c.AppID > 0 {
		f.appID.SetText(strconv.Itoa(c.AppID))
	} else {
		f.appID.SetText("")
	}
	f.offline.SetChecked(c.Offline)
	f.networking.SetChecked(c.DisableNetworking)
	f.overlay.SetChecked(c.DisableOverlay)
	f.achLabel.SetText(fmt.Sprintf("Achievements: %d", len(c.Achievements)))
	f.dlcList.Refresh()
}

// Build builds and mounts the UI on the given window, then runs the emulator
// update and loads the global settings in the background.
func Build(w fyne.Window, d Deps) {
	f := &form{cfg: goldberg.NewConfiguration()}

	logView := widget.NewMultiLineEntry()
	makeReadOnlyEntry(logView)
	logView.SetPlaceHolder("Logs will appear here…")
	d.Log.AddHook(newLogHook(logView, d.Log.GetLevel()))

	// Game folder row (wider via GridWrap)
	gameDirEntry := widget.NewEntry()
	makeReadOnlyEntry(gameDirEntry)
	entryW := float32(560)
	entryH := gameDirEntry.MinSize().Height
	gameDirBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(entryW, entryH)), gameDirEntry)
	pickDirBtn := widget.NewButton("Select game folder…", nil)

	// Per-game widgets
	f.appID = widget.NewEntry()
	f.appID.SetPlaceHolder("AppID")
	f.offline = widget.NewCheck("Offline mode", nil)
	f.networking = widget.NewCheck("Disable networking", nil)
	f.overlay = widget.NewCheck("Disable overlay", nil)
	f.achLabel = widget.NewLabel("Achievements: 0")
	f.dlcList = widget.NewList(
		func() int { return len(f.cfg.DLCs) },
		func() fyne.CanvasObject { return widget.NewLabel("dlc") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(f.cfg.DLCs[i].String()) },
	)

	// Global settings
	f.account = widget.NewEntry()
	f.steamID = widget.NewEntry()
	f.language = widget.NewSelect(settings.Languages(), nil)
	f.experiment = widget.NewCheck("Use experimental build", nil)
	f.broadcasts = widget.NewMultiLineEntry()
	f.broadcasts.SetPlaceHolder("One IP per line")
	f.setGlobal(settings.Defaults())

	findBtn := widget.NewButton("Find metadata", nil)
	interfacesBtn := widget.NewButton("Generate interfaces", nil)
	saveBtn := widget.NewButton("Save", nil)

	progress := widget.NewProgressBar()
	progress.Min = 0
	progress.Max = 1
	progress.Hide()

	// Layout
	gameBox := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("Game:"),
			container.NewBorder(nil, nil, widget.NewLabel("AppID:"), nil, f.appID),
			f.offline, f.networking, f.overlay,
			f.achLabel,
			widget.NewLabel("DLC:"),
		),
		container.NewHBox(findBtn, interfacesBtn),
		nil, nil,
		f.dlcList,
	)
	globalBox := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("Global settings:"),
			widget.NewForm(
				widget.NewFormItem("Account name", f.account),
				widget.NewFormItem("Steam ID", f.steamID),
				widget.NewFormItem("Language", f.language),
			),
			f.experiment,
			widget.NewLabel("Custom broadcast IPs:"),
		),
		nil, nil, nil,
		f.broadcasts,
	)
	pathRow := container.NewHBox(
		widget.NewLabel("Game folder:"),
		gameDirBox,
		pickDirBtn,
		layout.NewSpacer(),
		saveBtn,
	)
	bottom := container.NewVBox(
		pathRow,
		progress,
		widget.NewLabel("Status / Logs"),
		logView,
	)
	w.SetContent(container.NewBorder(nil, bottom, nil, nil, container.NewGridWithColumns(2, gameBox, globalBox)))

	var (
		steamMu     sync.Mutex
		steamClient *steam.Client
	)
	metadata := func() *steam.Client {
		steamMu.Lock()
		defer steamMu.Unlock()
		return steamClient
	}
	setSteam := func(key string) {
		c, err := d.NewSteam(key)
		if err != nil {
			d.Log.WithError(err).Fatal("Steam Web API key missing")
		}
		steamMu.Lock()
		steamClient = c
		steamMu.Unlock()
	}

	// Wiring
	pickDirBtn.OnTapped = func() {
		dlg := dialog.NewFolderOpen(func(list fyne.ListableURI, err error) {
			if err != nil || list == nil {
				return
			}
			gameDir := list.Path()
			if gameDir == "" {
				return
			}
			setEntryText(gameDirEntry, gameDir)
			go func() {
				cfg, err := d.Writer.Read(context.Background(), gameDir)
				runOnUI(func() {
					if err != nil {
						dialog.ShowError(err, w)
						return
					}
					f.setConfiguration(cfg)
				})
			}()
		}, w)
		dlg.Show()
	}

	findBtn.OnTapped = func() {
		client := metadata()
		if client == nil {
			dialog.ShowInformation("Find metadata", "Enter a Steam Web API key first.", w)
			return
		}
		cfg, err := f.configuration()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		findBtn.Disable()
		go func() {
			defer runOnUI(findBtn.Enable)
			ctx := context.Background()
			achievements, err := client.Achievements(ctx, cfg.AppID)
			if err != nil {
				runOnUI(func() { dialog.ShowError(err, w) })
				return
			}
			dlcs, err := client.DLCs(ctx, cfg.AppID)
			if err != nil {
				runOnUI(func() { dialog.ShowError(err, w) })
				return
			}
			runOnUI(func() {
				cfg.Achievements = achievements
				cfg.DLCs = mergeAppPaths(dlcs, f.cfg.DLCs)
				f.setConfiguration(cfg)
			})
		}()
	}

	interfacesBtn.OnTapped = func() {
		dlls := originalDLLs(gameDirEntry.Text)
		if len(dlls) == 0 {
			dialog.ShowInformation("Generate interfaces", "No original steam_api DLL found in the game folder.", w)
			return
		}
		for _, dll := range dlls {
			if _, err := interfaces.Generate(dll, d.Log); err != nil {
				dialog.ShowError(err, w)
				return
			}
		}
	}

	saveBtn.OnTapped = func() {
		gameDir := gameDirEntry.Text
		if gameDir == "" {
			dialog.ShowInformation("Save", "Select a game folder first.", w)
			return
		}
		cfg, err := f.configuration()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		g := f.global()
		saveBtn.Disable()
		go func() {
			defer runOnUI(saveBtn.Enable)
			if err := d.Settings.Save(g); err != nil {
				runOnUI(func() { dialog.ShowError(err, w) })
				return
			}
			err := d.Writer.Save(context.Background(), gameDir, g, cfg)
			runOnUI(func() {
				switch {
				case errors.Is(err, goldberg.ErrDllMissing):
					dialog.ShowInformation("Goldberg DLL missing",
						fmt.Sprintf("The emulator DLL could not be copied into the game folder.\n"+
							"Download the emulator and extract it into %s, then save again.", d.Updater.Layout.EmuDir), w)
				case err != nil:
					dialog.ShowError(err, w)
				default:
					dialog.ShowInformation("Save", "Configuration saved.", w)
				}
			})
		}()
	}

	// API key prompt
	if strings.TrimSpace(d.APIKey) != "" {
		setSteam(d.APIKey)
	} else {
		keyEntry := widget.NewPasswordEntry()
		prompt := dialog.NewForm("Steam Web API key", "OK", "Quit",
			[]*widget.FormItem{widget.NewFormItem("Key", keyEntry)},
			func(ok bool) {
				key := keyEntry.Text
				if !ok {
					key = ""
				}
				setSteam(key)
			}, w)
		prompt.Show()
	}

	// First load
	d.Updater.Progress = func(done, total int64) {
		if total <= 0 {
			return
		}
		runOnUI(func() { progress.SetValue(float64(done) / float64(total)) })
	}
	go func() {
		runOnUI(func() { progress.SetValue(0); progress.Show() })
		_, err := d.Updater.Update(context.Background())
		runOnUI(func() { progress.Hide() })
		if errors.Is(err, install.ErrSetupIncomplete) {
			runOnUI(func() {
				dialog.ShowInformation("Goldberg setup",
					fmt.Sprintf("%v\n\nExtract the emulator release into %s.", err, d.Updater.Layout.EmuDir), w)
			})
		}

		g, err := d.Settings.Load()
		if err != nil {
			d.Log.WithError(err).Error("Could not load global settings")
			return
		}
		runOnUI(func() { f.setGlobal(g) })
	}()
}

// originalDLLs lists the game's own Steam API DLLs. Once the emulator is
// applied only the _o backups are the originals.
func originalDLLs(gameDir string) []string {
	if gameDir == "" {
		return nil
	}
	applied := goldberg.Applied(gameDir)
	var out []string
	for _, name := range []string{"steam_api", "steam_api64"} {
		candidates := []string{name + "_o.dll"}
		if !applied {
			candidates = append(candidates, name+".dll")
		}
		for _, c := range candidates {
			p := filepath.Join(gameDir, c)
			if fsutil.Exists(p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// mergeAppPaths keeps the app paths of DLC already configured.
func mergeAppPaths(fresh, known []goldberg.DlcApp) []goldberg.DlcApp {
	paths := make(map[int]string, len(known))
	for _, d := range known {
		if d.AppPath != "" {
			paths[d.AppID] = d.AppPath
		}
	}
	for i := range fresh {
		fresh[i].AppPath = paths[fresh[i].AppID]
	}
	return fresh
}
