package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/slotfinder/internal/services/schedule"
	"github.com/benvon/slotfinder/internal/validation"
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	var (
		projects          []string
		labels            []string
		from, to          string
		timezone          string
		limit             int
		includeWithoutDue bool
		includeCompleted  bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List tasks ordered by due time",
		Long:  "Query tasks by project, label and due range. Dates accept YYYY-MM-DD or RFC 3339; a bare --to date includes that whole day.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			svc := e.scheduleService()
			loc, err := svc.Location(timezone)
			if err != nil {
				return err
			}
			dateFrom, err := validation.ParseDateBound(from, loc, false)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dateTo, err := validation.ParseDateBound(to, loc, true)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			result, err := svc.Query(cmd.Context(), schedule.QueryRequest{
				ProjectNames:      validation.SanitizeNames(projects),
				LabelFilters:      validation.SanitizeNames(labels),
				DateFrom:          dateFrom,
				DateTo:            dateTo,
				IncludeWithoutDue: includeWithoutDue,
				IncludeCompleted:  includeCompleted,
				Limit:             limit,
				Timezone:          timezone,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringSliceVarP(&projects, "project", "p", nil, "Project name (repeatable)")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label every task must carry (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "Earliest due date or time")
	cmd.Flags().StringVar(&to, "to", "", "Latest due date or time")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA zone (default from DEFAULT_TIMEZONE)")
	cmd.Flags().IntVar(&limit, "limit", schedule.DefaultQueryLimit, "Maximum number of tasks")
	cmd.Flags().BoolVar(&includeWithoutDue, "include-without-due", false, "Include tasks without a due date")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "Include completed tasks")

	return cmd
}
