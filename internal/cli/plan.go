// plan.go implements "ember plan", turning raw input into a mission.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/schema"
)

var (
	planKind     string
	planDeadline string
	planHours    float64
	planCommit   bool
)

var planCmd = &cobra.Command{
	Use:   "plan <what you want to accomplish>",
	Short: "Create a mission with a proposed session timeline",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planKind, "kind", "", "Mission kind: exam, project, habit, life_admin, other")
	planCmd.Flags().StringVar(&planDeadline, "deadline", "", "Deadline date (YYYY-MM-DD)")
	planCmd.Flags().Float64Var(&planHours, "hours", 0, "Estimated total effort in hours")
	planCmd.Flags().BoolVar(&planCommit, "commit", false, "Commit the proposed sessions to the timeline")
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	req := schema.PlanMissionRequest{
		RawInput:       strings.Join(args, " "),
		Kind:           schema.MissionKind(planKind),
		EstimatedHours: planHours,
	}
	if planDeadline != "" {
		deadline, err := time.Parse("2006-01-02", planDeadline)
		if err != nil {
			return fmt.Errorf("cli: parse deadline: %w", err)
		}
		req.Deadline = deadline.UTC()
	}

	resp, err := a.svc.PlanMission(cmd.Context(), a.callerContext(), req)
	if err != nil {
		return err
	}

	fmt.Println(resp.Summary)
	if resp.Rationale != "" {
		fmt.Println(resp.Rationale)
	}
	if resp.SimilarMissionsNote != "" {
		fmt.Println(resp.SimilarMissionsNote)
	}
	for _, block := range resp.ProposedBlocks {
		fmt.Printf("  %d. %s (%d min, %s)\n",
			block.SequenceIndex+1, block.Title,
			block.SuggestedDurationMinutes,
			block.SuggestedDate.Format("Mon Jan 2 15:04"))
	}
	for _, warning := range resp.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	if planCommit && len(resp.ProposedBlocks) > 0 {
		committed, err := a.timeline.CommitBlocks(cmd.Context(), resp.Mission, resp.ProposedBlocks)
		if err != nil {
			return err
		}
		fmt.Printf("Committed %d sessions to the timeline\n", len(committed))
	}
	return nil
}
