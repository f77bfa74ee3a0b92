// focus.go implements "ember focus": ask the coach for a block, run the
// dock timer, then close the block with the outcome.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tui"
)

var (
	focusMission string
	focusMinutes int
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Run a focus block with the dock timer",
	RunE:  runFocus,
}

func init() {
	focusCmd.Flags().StringVar(&focusMission, "mission", "", "Mission id to work on")
	focusCmd.Flags().IntVar(&focusMinutes, "minutes", 0, "Available minutes")
}

func runFocus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	callerCtx := a.callerContext()
	resp, err := a.svc.RunSession(cmd.Context(), callerCtx, schema.RunSessionRequest{
		MissionID:        focusMission,
		AvailableMinutes: focusMinutes,
	})
	if err != nil {
		return err
	}
	if len(resp.Warnings) > 0 {
		for _, warning := range resp.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}
		if resp.Block.MissionID == "" {
			return fmt.Errorf("cli: no mission to focus on; create one with: ember plan")
		}
	}

	outcome, err := tui.Run(resp.Block, resp.Brief, resp.Actions)
	if err != nil {
		return err
	}

	switch outcome {
	case tui.OutcomeFinished:
		if _, err := a.timeline.CompleteBlock(cmd.Context(), resp.Block.ID, "", nil); err != nil {
			return err
		}
		fmt.Println("Block completed.")
		reflectResp, err := a.svc.ReflectPeriod(cmd.Context(), callerCtx, schema.ReflectPeriodRequest{
			Kind:      schema.ReflectBlock,
			MissionID: resp.Block.MissionID,
			BlockID:   resp.Block.ID,
		})
		if err != nil {
			return err
		}
		fmt.Println(reflectResp.Summary)
	case tui.OutcomeAbandoned:
		if _, err := a.timeline.CancelBlock(cmd.Context(), resp.Block.ID); err != nil {
			return err
		}
		fmt.Println("Block cancelled.")
	default:
		fmt.Println("Session left running. Resume with: ember focus")
	}
	return nil
}
