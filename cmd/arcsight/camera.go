package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/krystian-booker/ArcSight-sub000/pkg/camera"
)

func NewCameraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "camera",
		Aliases: []string{"cameras", "cam"},
		Short:   "Manage cameras registered on the device",
		GroupID: gBasic,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered cameras",
		RunE: func(_ *cobra.Command, _ []string) error {
			cams, err := deviceClient().ListCameras()
			if err != nil {
				return fmt.Errorf("failed to list cameras: %w", err)
			}
			if len(cams) == 0 {
				fmt.Println("No cameras registered.")
				return nil
			}
			bold := color.New(color.Bold)
			for _, cam := range cams {
				calibrated := "uncalibrated"
				if cam.Calibrated {
					calibrated = "calibrated"
				}
				fmt.Printf("%s  %s (%s, %s)\n", cam.ID, bold.Sprint(cam.Name), cam.Transport, calibrated)
			}
			return nil
		},
	}

	var transport, path string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a camera on the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cam, err := deviceClient().AddCamera(camera.AddRequest{
				Name:      args[0],
				Transport: transport,
				Path:      path,
			})
			if err != nil {
				return fmt.Errorf("failed to add camera: %w", err)
			}
			fmt.Printf("Registered camera %s with id %s.\n", cam.Name, cam.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&transport, "transport", "usb", "camera transport (usb, csi, rtsp)")
	addCmd.Flags().StringVar(&path, "path", "", "device node or stream URL")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Unregister a camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := deviceClient().RemoveCamera(args[0]); err != nil {
				return fmt.Errorf("failed to remove camera: %w", err)
			}
			fmt.Printf("Removed camera %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, removeCmd)
	return cmd
}
