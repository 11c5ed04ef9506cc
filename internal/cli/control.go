package cli

import (
	"errors"
	"fmt"
	"strconv"

	"talentAgent/internal/cli/ui"
	"talentAgent/internal/pacing"

	"github.com/spf13/cobra"
)

func newPauseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Приостановить идущий прогон (создаёт файл паузы)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := pacing.NewPauseGate(app.cfg.Pacing.PauseFile, app.cfg.Pacing.PausePoll, app.log.Logger)
			if err := gate.Pause(); err != nil {
				return err
			}
			fmt.Fprintln(app.out, ui.IconPause+" Пауза: "+app.cfg.Pacing.PauseFile)
			return nil
		},
	}
}

func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Продолжить прогон после паузы",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := pacing.NewPauseGate(app.cfg.Pacing.PauseFile, app.cfg.Pacing.PausePoll, app.log.Logger)
			if err := gate.Resume(); err != nil {
				return err
			}
			fmt.Fprintln(app.out, ui.IconCheckmark+" Прогон продолжен")
			return nil
		},
	}
}

func newSpeedCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "speed <1..5>",
		Short: "Изменить скорость идущего прогона через файл скорости",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Pacing.SpeedFile == "" {
				return errors.New("файл скорости не задан: укажите --speed-file или SPEED_FILE")
			}
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("скорость %q: %w", args[0], err)
			}
			pacer := pacing.NewPacer(app.cfg.Pacing.SpeedFile, app.cfg.Pacing.Speed, app.log.Logger)
			got, err := pacer.WriteSpeed(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "%s Скорость: %.2f\n", ui.IconCheckmark, got)
			return nil
		},
	}
}
