package main

import (
	"fmt"

	"fyne.io/fyne/v2/app"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/config"
	"github.com/vidloop/feedplay/internal/feed"
	"github.com/vidloop/feedplay/internal/media"
	"github.com/vidloop/feedplay/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.vidloop.feedplay"
	AppName = "Feedplay"
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	myApp := app.NewWithID(AppID)
	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "feedplay",
		Level: hclog.Info,
	})

	settings := config.NewSettings(myApp)
	provider := media.NewSimProvider(settings.GetSimLatency(), logger.Named("media"))
	manager := feed.NewManager(provider, settings.ManagerOptions(logger.Named("feed")))
	defer manager.Close()

	ui.NewRootUI(myWindow, myApp, manager, logger.Named("ui"))

	myWindow.ShowAndRun()
}
