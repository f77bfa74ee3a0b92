// reflect.go implements "ember reflect", running the archivist over a
// period of work.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfocus/ember/internal/schema"
)

var (
	reflectNote   string
	reflectFocus  int
	reflectEnergy int
)

var reflectCmd = &cobra.Command{
	Use:   "reflect [block|day|week|mission]",
	Short: "Reflect on a period of work",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReflect,
}

func init() {
	reflectCmd.Flags().StringVar(&reflectNote, "note", "", "Your own reflection on the period")
	reflectCmd.Flags().IntVar(&reflectFocus, "focus", 0, "Focus score 1-5")
	reflectCmd.Flags().IntVar(&reflectEnergy, "energy", 0, "Energy score 1-5")
}

func runReflect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	kind := schema.ReflectDay
	if len(args) > 0 {
		kind = schema.ReflectPeriodKind(args[0])
	}

	req := schema.ReflectPeriodRequest{
		Kind:           kind,
		UserReflection: reflectNote,
	}
	if reflectFocus != 0 {
		req.FocusScore = schema.Score(reflectFocus)
	}
	if reflectEnergy != 0 {
		req.EnergyScore = schema.Score(reflectEnergy)
	}

	resp, err := a.svc.ReflectPeriod(cmd.Context(), a.callerContext(), req)
	if err != nil {
		return err
	}

	fmt.Println(resp.Summary)
	fmt.Printf("Focused: %d min, leaked: %d min, blocks: %d\n",
		resp.Stats.TotalFocusedMinutes, resp.Stats.TotalLeakedMinutes,
		resp.Stats.BlocksCompleted)
	for _, pattern := range resp.Patterns {
		fmt.Printf("  %s (%.0f%%)\n", pattern.Description, pattern.Confidence*100)
	}
	for _, suggestion := range resp.Suggestions {
		fmt.Printf("  try: %s\n", suggestion)
	}
	for _, warning := range resp.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}
