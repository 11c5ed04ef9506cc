package cli

import (
	"errors"
	"fmt"
	"io"

	"talentAgent/internal/cli/ui"
	"talentAgent/internal/database"

	"github.com/spf13/cobra"
)

const recentRuns = 20

func newRunsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Последние прогоны или проблемные карточки одного прогона",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.cfg.Database.Enabled() {
				return errors.New("история недоступна: не задан DB_HOST")
			}
			hist, err := app.openHistory()
			if err != nil {
				return err
			}
			defer hist.close()

			ctx := cmd.Context()
			if len(args) == 1 {
				items, err := hist.repo.FailedItems(ctx, args[0])
				if err != nil {
					return err
				}
				printItems(app.out, args[0], items)
				return nil
			}
			runs, err := hist.repo.ListRuns(ctx, recentRuns)
			if err != nil {
				return err
			}
			printRuns(app.out, runs)
			return nil
		},
	}
}

func printRuns(w io.Writer, runs []database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, ui.ColorGray+"Прогонов пока нет"+ui.ColorReset)
		return
	}
	fmt.Fprintf(w, ui.ColorBold+ui.IconList+" Последние прогоны (%d)"+ui.ColorReset+"\n", len(runs))
	for _, r := range runs {
		icon, color, text := ui.FormatStatus(r.Status)
		dry := ""
		if r.DryRun {
			dry = " [dry-run]"
		}
		fmt.Fprintf(w, "%s%s %-11s"+ui.ColorReset+" %s %s %s%s\n",
			color, icon, text, r.StartedAt.Local().Format("2006-01-02 15:04"), r.ID, r.Kind, dry)
		fmt.Fprintf(w, "    %s  стр. %d  карточек %d: успешно %d, уже было %d, пропущено %d, ошибок %d, не определено %d\n",
			r.Target, r.Pages, r.Seen, r.Succeeded, r.AlreadyDone, r.Skipped, r.Failed, r.Unknown)
	}
}

func printItems(w io.Writer, runID string, items []database.ItemResult) {
	if len(items) == 0 {
		fmt.Fprintf(w, ui.ColorGreen+ui.IconCheckmark+" В прогоне %s проблемных карточек нет"+ui.ColorReset+"\n", runID)
		return
	}
	fmt.Fprintf(w, ui.ColorYellow+"Проблемные карточки прогона %s (%d):"+ui.ColorReset+"\n", runID, len(items))
	for _, it := range items {
		icon, color := ui.FormatOutcome(it.Outcome)
		fmt.Fprintf(w, "  %s%s %s"+ui.ColorReset+" стр. %d %s/%s", color, icon, it.ItemID, it.Page, it.Phase, it.Outcome)
		if it.Reason != "" {
			fmt.Fprintf(w, ": %s", it.Reason)
		}
		if it.URL != "" {
			fmt.Fprintf(w, " "+ui.ColorGray+"%s"+ui.ColorReset, it.URL)
		}
		fmt.Fprintln(w)
	}
}
