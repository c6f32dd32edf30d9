package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/krystian-booker/ArcSight-sub000/pkg/events"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
	"github.com/krystian-booker/ArcSight-sub000/pkg/results"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
	"github.com/krystian-booker/ArcSight-sub000/pkg/settings"
)

type patternFlags struct {
	patternType string
	width       int
	height      int
	square      float64
	marker      float64
	dictionary  string
}

func (pf *patternFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&pf.patternType, "pattern", "", "target type (chessboard, charuco)")
	flags.IntVar(&pf.width, "width", 0, "inner corner count across")
	flags.IntVar(&pf.height, "height", 0, "inner corner count down")
	flags.Float64Var(&pf.square, "square", 0, "square size in millimeters")
	flags.Float64Var(&pf.marker, "marker", 0, "charuco marker size in millimeters")
	flags.StringVar(&pf.dictionary, "dict", "", "charuco marker dictionary (4x4_50, 5x5_100, 6x6_250, 7x7_1000)")
}

// apply pushes the flags the user actually set through the controller's
// clamped edit path, so the persisted settings mirror the confirmed values.
func (pf *patternFlags) apply(cmd *cobra.Command, ctrl *session.Controller) error {
	var err error
	if cmd.Flags().Changed("pattern") {
		_, err = ctrl.SetPatternType(pattern.Type(pf.patternType))
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("square") {
		if _, err = ctrl.SetSquareSize(pf.square); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
		cfg := ctrl.Pattern()
		w, h := cfg.InnerCorners()
		if cmd.Flags().Changed("width") {
			w = pf.width
		}
		if cmd.Flags().Changed("height") {
			h = pf.height
		}
		if _, err = ctrl.SetInnerCorners(w, h); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("marker") || cmd.Flags().Changed("dict") {
		if _, err = ctrl.SetMarker(pf.marker, pattern.Dictionary(pf.dictionary)); err != nil {
			return err
		}
	}
	return nil
}

func NewCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibrate",
		Aliases: []string{"calibration", "cali"},
		Short:   "Calibrate camera intrinsics against a printed target",
		Long: `Run the camera intrinsics calibration workflow: choose a calibration
pattern, capture frames of the printed target from different angles, compute
the camera matrix and distortion coefficients, and save them to the device.`,
		GroupID: gCalibration,
	}

	var pf patternFlags
	var cameraID string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive calibration session for a camera",
		RunE: func(c *cobra.Command, _ []string) error {
			store := settings.NewStore(settingsPath)
			hub := events.NewEventHub()
			ctrl := session.NewController(deviceClient(), store, hub)
			if err := pf.apply(c, ctrl); err != nil {
				return err
			}
			return runWizard(ctrl, hub, cameraID)
		},
	}
	runCmd.Flags().StringVar(&cameraID, "camera", "", "camera id to calibrate")
	_ = runCmd.MarkFlagRequired("camera")
	pf.register(runCmd)

	var out string
	patternCmd := &cobra.Command{
		Use:   "pattern",
		Short: "Download a printable pattern document for the configured target",
		RunE: func(c *cobra.Command, _ []string) error {
			store := settings.NewStore(settingsPath)
			ctrl := session.NewController(deviceClient(), store, nil)
			if err := pf.apply(c, ctrl); err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := deviceClient().DownloadPattern(ctrl.Pattern(), f); err != nil {
				return fmt.Errorf("failed to download pattern: %w", err)
			}
			fmt.Printf("Pattern written to %s.\n", out)
			return nil
		},
	}
	patternCmd.Flags().StringVar(&out, "out", "calibration-pattern.pdf", "output file")
	pf.register(patternCmd)

	cmd.AddCommand(runCmd, patternCmd)
	return cmd
}

// watchTransitions logs decoded workflow transitions from the hub until the
// subscription channel closes. Runs alongside the wizard loop so transitions
// driven by remote responses show up in debug output as they happen.
func watchTransitions(hub *events.EventHub) {
	ch := hub.Subscribe()
	for ev := range ch {
		if ev.Name != events.SessionStep {
			continue
		}
		step, err := events.DecodeAs[events.SessionStepEvent](ev)
		if err != nil {
			logrus.WithError(err).Debug("undecodable step event")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"from": step.From,
			"to":   step.To,
		}).Debug(step.Message)
	}
}

func runWizard(ctrl *session.Controller, hub *events.EventHub, cameraID string) error {
	go watchTransitions(hub)
	printPattern(ctrl.Pattern())
	if err := ctrl.StartSession(cameraID, nil); err != nil {
		return err
	}
	printStatus(ctrl.Status())
	fmt.Println("Commands: [c]apture  [g] calculate  [s]ave  [r]estart  [st]atus  [q]uit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "c", "capture":
			err = ctrl.CaptureFrame()
		case "g", "calculate":
			err = ctrl.Calculate()
		case "s", "save":
			err = ctrl.SaveResult()
		case "r", "restart":
			ctrl.Restart()
			err = ctrl.StartSession(cameraID, nil)
		case "st", "status":
		case "q", "quit":
			return nil
		default:
			fmt.Println("Unknown command. Use c, g, s, r, st or q.")
			continue
		}
		if err != nil {
			color.Red("%v", err)
		}
		printStatus(ctrl.Status())
	}
}

func printPattern(cfg pattern.Config) {
	w, h := cfg.InnerCorners()
	fmt.Printf("Target: %s %dx%d, %gmm squares", cfg.Type(), w, h, cfg.SquareSizeMM())
	if ch, ok := cfg.(pattern.Charuco); ok {
		fmt.Printf(", %gmm markers (%s)", ch.MarkerSize, ch.Dictionary)
	}
	fmt.Println()
}

func printStatus(st session.Snapshot) {
	bold := func(format string, a ...interface{}) string { return color.New(color.Bold).Sprintf(format, a...) }
	fmt.Printf("Step: %s  Frames: %s\n", bold(string(st.Step)), bold("%d/%d", st.CapturedFrames, st.MinFrames))
	if st.Status != nil {
		switch st.Status.Severity {
		case session.SeverityInfo:
			fmt.Println(st.Status.Text)
		case session.SeverityWarning:
			color.Yellow(st.Status.Text)
		default:
			color.Red(st.Status.Text)
		}
	}
	if st.LastResult != nil {
		printResult(st.LastResult)
	}
}

func printResult(res *session.Result) {
	tier := results.Classify(res.ReprojectionError)
	tierColor := color.New(color.FgRed)
	switch tier {
	case results.TierExcellent:
		tierColor = color.New(color.FgGreen)
	case results.TierGood:
		tierColor = color.New(color.FgYellow)
	}
	fmt.Printf("Reprojection error: %.4f (%s)\n", res.ReprojectionError, tierColor.Sprint(string(tier)))
	fmt.Println("Camera matrix:")
	fmt.Println(results.FormatMatrix(res.CameraMatrix))
	fmt.Printf("Distortion coefficients: %s\n", results.FormatDistCoeffs(res.DistCoeffs))
}
