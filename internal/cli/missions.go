// missions.go implements "ember missions", listing and managing missions.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
)

var missionsStatus string

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List your missions",
	RunE:  runMissions,
}

var missionsCompleteCmd = &cobra.Command{
	Use:   "complete <mission-id>",
	Short: "Mark a mission completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionMission(cmd, args[0], "complete")
	},
}

var missionsPauseCmd = &cobra.Command{
	Use:   "pause <mission-id>",
	Short: "Pause a mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionMission(cmd, args[0], "pause")
	},
}

var missionsResumeCmd = &cobra.Command{
	Use:   "resume <mission-id>",
	Short: "Resume a paused mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionMission(cmd, args[0], "resume")
	},
}

var missionsAbandonCmd = &cobra.Command{
	Use:   "abandon <mission-id>",
	Short: "Abandon a mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionMission(cmd, args[0], "abandon")
	},
}

func init() {
	missionsCmd.Flags().StringVar(&missionsStatus, "status", "", "Filter by status: draft, active, paused, completed, abandoned")
	missionsCmd.AddCommand(missionsCompleteCmd)
	missionsCmd.AddCommand(missionsPauseCmd)
	missionsCmd.AddCommand(missionsResumeCmd)
	missionsCmd.AddCommand(missionsAbandonCmd)
}

func runMissions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	user := a.callerContext().UserID
	missions, err := a.missions.ListMissions(cmd.Context(), user, memory.MissionListOptions{
		Status: schema.MissionStatus(missionsStatus),
	})
	if err != nil {
		return err
	}
	if len(missions) == 0 {
		fmt.Println("No missions yet. Create one with: ember plan")
		return nil
	}
	for _, m := range missions {
		deadline := ""
		if !m.DeadlineDate.IsZero() {
			deadline = "  due " + m.DeadlineDate.Format("2006-01-02")
		}
		fmt.Printf("%s  %-9s  %s%s\n", m.ID, m.Status, m.Title, deadline)
	}
	return nil
}

func transitionMission(cmd *cobra.Command, id, action string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var mission schema.Mission
	switch action {
	case "complete":
		mission, err = a.missions.CompleteMission(cmd.Context(), id)
	case "pause":
		mission, err = a.missions.PauseMission(cmd.Context(), id)
	case "resume":
		mission, err = a.missions.ResumeMission(cmd.Context(), id)
	case "abandon":
		mission, err = a.missions.AbandonMission(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Mission %s is now %s\n", mission.ID, mission.Status)
	return nil
}
