package app

import (
	"context"
	"net/http"
	"runtime"

	"fyne.io/fyne/v2"
	fynex "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/config"
	"github.com/SiirRandall/goldberg-manager/internal/github"
	"github.com/SiirRandall/goldberg-manager/internal/goldberg"
	"github.com/SiirRandall/goldberg-manager/internal/install"
	"github.com/SiirRandall/goldberg-manager/internal/settings"
	"github.com/SiirRandall/goldberg-manager/internal/steam"
	"github.com/SiirRandall/goldberg-manager/internal/ui"
)

// Run is the entry point used by main.
func Run() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		log.WithError(err).Fatal("Could not load configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		log.WithField("level", cfg.Logging.Level).Warn("Unknown log level, using info")
	} else {
		log.SetLevel(lvl)
	}

	if runtime.GOOS != "windows" {
		log.Info("Note: Goldberg replaces Windows Steam API DLLs. Games run through Wine/Proton still work.")
	}

	workDir := cfg.Paths.WorkDir
	if workDir == "" {
		if workDir, err = install.ResolveWorkDir(); err != nil {
			log.WithError(err).Fatal("Could not resolve work directory")
		}
	}
	l := install.NewLayout(workDir, cfg.Paths.EmuDir)

	root := cfg.Paths.SettingsRoot
	if root == "" {
		root = settings.DefaultRoot()
	}
	store := settings.NewStore(root, log.WithField("component", "settings"))

	releases := github.NewClient(cfg.Release.BaseURL, cfg.Timeout())
	releases.Token = cfg.Release.Token
	releases.UserAgent = cfg.HTTP.UserAgent

	extractor := install.SevenZip{Log: log.WithField("component", "extract")}
	updater := &install.Updater{
		Layout:    l,
		Source:    releases,
		Extractor: extractor,
		// the release archive is large; only ctx bounds the download
		Client:    &http.Client{},
		UserAgent: cfg.HTTP.UserAgent,
		Log:       log.WithField("component", "update"),
	}

	writer := goldberg.NewWriter(goldberg.Options{
		EmuDir: l.EmuDir,
		Assets: goldberg.Assets{
			OverlayTemplate: l.OverlayTemplate(),
			Font:            l.Font(),
			GlyphsDir:       l.GlyphsDir(),
		},
		Settings: store,
		Controller: goldberg.ExecGenerator{
			Dir: l.GeneratorDir(),
			Setup: func(ctx context.Context) error {
				return install.EnsureTools(ctx, l, extractor, log.WithField("component", "tools"))
			},
		},
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		UserAgent:  cfg.HTTP.UserAgent,
	}, log.WithField("component", "writer"))

	newSteam := func(apiKey string) (*steam.Client, error) {
		return steam.NewClient(steam.Options{
			APIKey:    apiKey,
			APIURL:    cfg.Steam.APIURL,
			StoreURL:  cfg.Steam.StoreURL,
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.Timeout(),
		}, log.WithField("component", "steam"))
	}

	a := fynex.NewWithID("com.sirrandall.goldberg.manager")
	w := a.NewWindow("Goldberg Manager")
	w.Resize(fyne.NewSize(1100, 720))

	// Build and mount the UI.
	ui.Build(w, ui.Deps{
		Log:      log,
		Settings: store,
		Writer:   writer,
		Updater:  updater,
		NewSteam: newSteam,
		APIKey:   cfg.Steam.APIKey,
	})

	w.ShowAndRun()
}
