// session.go implements "ember session", asking the coach for the next
// focus block without opening the dock.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/schema"
)

var (
	sessionMission string
	sessionBlock   string
	sessionMinutes int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start or continue a focus session",
	RunE:  runSession,
}

func init() {
	sessionCmd.Flags().StringVar(&sessionMission, "mission", "", "Mission id to work on")
	sessionCmd.Flags().StringVar(&sessionBlock, "block", "", "Specific block id to start")
	sessionCmd.Flags().IntVar(&sessionMinutes, "minutes", 0, "Available minutes")
}

func runSession(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.svc.RunSession(cmd.Context(), a.callerContext(), schema.RunSessionRequest{
		MissionID:        sessionMission,
		BlockID:          sessionBlock,
		AvailableMinutes: sessionMinutes,
	})
	if err != nil {
		return err
	}

	fmt.Println(resp.Brief)
	for _, action := range resp.Actions {
		suffix := ""
		if action.IsStretchGoal {
			suffix = " (stretch)"
		}
		fmt.Printf("  - %s%s\n", action.Description, suffix)
	}
	fmt.Printf("Block %s: %d minutes\n", resp.Block.ID, resp.RecommendedDurationMinutes)
	for _, warning := range resp.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}
