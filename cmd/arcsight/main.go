package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/krystian-booker/ArcSight-sub000/pkg/client"
)

var (
	logLevel     = "info"
	deviceURL    = "http://127.0.0.1:5800"
	settingsPath = defaultSettingsPath()
)

var (
	gBasic        = "Basic:"
	gCalibration  = "Calibration:"
	commandGroups = []string{
		gBasic,
		gCalibration,
	}
)

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "arcsight-pattern.json"
	}
	return dir + "/arcsight/pattern.json"
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDeviceUnreachable) {
		fmt.Fprintln(os.Stderr, "\nError: cannot reach the vision device")
		fmt.Fprintln(os.Stderr, "Is the device powered on? Check the --device address.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arcsight",
		Short: "arcsight is the administrative console for ArcSight vision-pipeline devices",
		Long: `arcsight is the administrative console for ArcSight vision-pipeline devices.
It registers cameras, configures detection pipelines and calibrates camera
intrinsics against a printed chessboard or ChArUco target.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&deviceURL, "device", deviceURL, "base URL of the vision device service")
	globalFlags.StringVar(&settingsPath, "settings", settingsPath, "path of the local pattern settings record")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewCameraCommand(),
		NewPipelineCommand(),
		NewCalibrateCommand(),
		NewConsoleCommand(),
		NewVersionCommand(),
	)

	return cmd
}

func deviceClient() *client.Client {
	return client.New(deviceURL)
}
