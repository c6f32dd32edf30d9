package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/krystian-booker/ArcSight-sub000/pkg/pipeline"
)

func NewPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pipeline",
		Aliases: []string{"pipelines", "pipe"},
		Short:   "Manage detection pipelines on the device",
		GroupID: gBasic,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured pipelines",
		RunE: func(_ *cobra.Command, _ []string) error {
			pls, err := deviceClient().ListPipelines()
			if err != nil {
				return fmt.Errorf("failed to list pipelines: %w", err)
			}
			if len(pls) == 0 {
				fmt.Println("No pipelines configured.")
				return nil
			}
			bold := color.New(color.Bold)
			for _, pl := range pls {
				state := "disabled"
				if pl.Enabled {
					state = "enabled"
				}
				fmt.Printf("%s  %s (%s on camera %s, %s)\n", pl.ID, bold.Sprint(pl.Name), pl.Kind, pl.CameraID, state)
			}
			return nil
		},
	}

	var cameraID, kind string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Configure a new detection pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pl, err := deviceClient().CreatePipeline(pipeline.CreateRequest{
				Name:     args[0],
				CameraID: cameraID,
				Kind:     kind,
			})
			if err != nil {
				return fmt.Errorf("failed to create pipeline: %w", err)
			}
			fmt.Printf("Created pipeline %s with id %s.\n", pl.Name, pl.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&cameraID, "camera", "", "camera id the pipeline reads from")
	createCmd.Flags().StringVar(&kind, "kind", "apriltag", "pipeline kind (apriltag, aruco, object_detection)")
	_ = createCmd.MarkFlagRequired("camera")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := deviceClient().DeletePipeline(args[0]); err != nil {
				return fmt.Errorf("failed to delete pipeline: %w", err)
			}
			fmt.Printf("Deleted pipeline %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, createCmd, deleteCmd)
	return cmd
}
