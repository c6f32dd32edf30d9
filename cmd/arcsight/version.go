package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krystian-booker/ArcSight-sub000/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the console version",
		GroupID: gBasic,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.Version)
		},
	}
}
