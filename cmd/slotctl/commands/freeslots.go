package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/schedule"
	"github.com/benvon/slotfinder/internal/validation"
)

// NewFreeSlotsCmd creates the free-slots command
func NewFreeSlotsCmd() *cobra.Command {
	var (
		projects   []string
		labels     []string
		from, to   string
		start, end string
		minSlot    int
		timezone   string
		asICS      bool
	)

	cmd := &cobra.Command{
		Use:   "free-slots",
		Short: "Find free time inside the work window of each day",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateFrom, err := models.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dateTo, err := models.ParseDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.scheduleService().FreeSlots(cmd.Context(), schedule.FreeSlotsRequest{
				ProjectNames:   validation.SanitizeNames(projects),
				LabelFilters:   validation.SanitizeNames(labels),
				DateFrom:       dateFrom,
				DateTo:         dateTo,
				WorkdayStart:   start,
				WorkdayEnd:     end,
				MinSlotMinutes: minSlot,
				Timezone:       timezone,
			})
			if err != nil {
				return err
			}

			if asICS {
				_, err := fmt.Fprint(cmd.OutOrStdout(), result.Calendar(time.Now()))
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringSliceVarP(&projects, "project", "p", nil, "Only count tasks in this project (repeatable)")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Only count tasks with this label (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&start, "start", "", "Workday start HH:MM (default from WORKDAY_START)")
	cmd.Flags().StringVar(&end, "end", "", "Workday end HH:MM (default from WORKDAY_END)")
	cmd.Flags().IntVar(&minSlot, "min-slot", 0, "Shortest slot in minutes (default from MIN_SLOT_MINUTES)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA zone (default from DEFAULT_TIMEZONE)")
	cmd.Flags().BoolVar(&asICS, "ics", false, "Print an iCalendar feed instead of JSON")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
