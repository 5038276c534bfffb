// Command padlink runs the host-side bridge for a padlink serial
// macropad, connecting a serial port to the framing protocol and
// logging device activity.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.bug.st/serial"

	"github.com/pleimann/padlink/bridge"
	"github.com/pleimann/padlink/link"
	"github.com/pleimann/padlink/logger"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "padlink",
		Usage:   "host bridge for a padlink serial macropad",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "bridge.toml",
				Usage:   "path to the TOML bridge profile",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "serial port path, overriding the profile",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("padlink terminated", "error", err)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		logger.SetLevel(logger.DebugLevel)
	}

	fc, err := bridge.LoadFileConfig(c.String("config"))
	if err != nil {
		return err
	}
	if port := c.String("port"); port != "" {
		fc.Port = port
	}

	cfg, err := bridge.NewConfig(fc.Options()...)
	if err != nil {
		return err
	}

	sp, err := serial.Open(fc.Port, &serial.Mode{BaudRate: fc.Baud})
	if err != nil {
		return fmt.Errorf("open serial port %q: %w", fc.Port, err)
	}

	b, err := bridge.NewBridge(sp, cfg)
	if err != nil {
		_ = sp.Close()
		return err
	}

	b.OnConnectivityChange(func(connected bool) {
		if connected {
			logger.Info("device connected", "port", fc.Port)
			if err := b.SendStatus("padlink " + version); err != nil {
				logger.Warn("failed to send status", "error", err)
			}
		} else {
			logger.Warn("device disconnected", "port", fc.Port)
		}
	})

	for id := byte(0); id < link.MaxLabels; id++ {
		buttonID := id
		b.OnButton(buttonID, func(pressed bool) {
			logger.Info("button", "id", buttonID, "pressed", pressed)
		})
	}

	if err := b.Open(); err != nil {
		_ = sp.Close()
		return err
	}

	logger.Info("padlink bridge running", "port", fc.Port, "baud", fc.Baud)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return b.Close()
}
