// Package cli defines Cobra command definitions for the ember CLI.
// This file contains the root command and shared application wiring.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	userFlag string
	version  = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Focus companion for missions, sessions, and reflection",
	Long: `Ember helps you plan missions, run focused work sessions, and
reflect on how they went. Three agents share your memory: the planner
turns messy intent into a mission with a session timeline, the coach
starts and steers focus blocks, and the archivist turns finished work
into episodes, stats, and patterns.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id (defaults to the configured user)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(missionsCmd)
	rootCmd.AddCommand(graphCmd)
}
