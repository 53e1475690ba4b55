package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"civico/internal/app/playerstate"
	"civico/internal/config"
	"civico/internal/domain/settlement"
	"civico/internal/platform/logging"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newInspectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <username>",
		Short: "Reconcile a settlement and print its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer b.Close()

			s, err := b.Settlements.GetByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find %q: %s", args[0], playerstate.UserMessage(err))
			}
			svc := buildServices(b, cfg.Game, log, time.Now)
			v, err := svc.State.GetReconciledState(cmd.Context(), s.ID)
			if err != nil {
				return fmt.Errorf("reconcile %q: %s", args[0], playerstate.UserMessage(err))
			}
			return renderView(cmd.OutOrStdout(), v)
		},
	}
}

func renderView(w io.Writer, v playerstate.View) error {
	fmt.Fprintf(w, "%s at (%d,%d), population %d, pacifist %t\n",
		v.Username, v.MapCoordinates.X, v.MapCoordinates.Y, v.Population, v.Pacifist)

	resources := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Resource", "Stock", "Max", "Rate/h"}))
	rows := [][]string{
		{"lumber", num(v.Lumber), num(v.MaxLumber), num(v.LumberRate)},
		{"iron", num(v.Iron), num(v.MaxIron), num(v.IronRate)},
		{"clay", num(v.Clay), num(v.MaxClay), num(v.ClayRate)},
		{"wheat", num(v.Wheat), num(v.MaxWheat), num(v.WheatRate)},
	}
	for _, r := range rows {
		if err := resources.Append(r); err != nil {
			return err
		}
	}
	if err := resources.Render(); err != nil {
		return err
	}

	troops := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Troop", "Home"}))
	for _, t := range settlement.TroopTypes {
		if err := troops.Append([]string{string(t), strconv.Itoa(v.Troops[t])}); err != nil {
			return err
		}
	}
	if err := troops.Render(); err != nil {
		return err
	}

	if len(v.TroopsOnMove) == 0 {
		return nil
	}
	moving := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Group", "Target", "Returning", "Arrives"}))
	for _, g := range v.TroopsOnMove {
		row := []string{
			g.ID,
			fmt.Sprintf("(%d,%d)", g.Destination.X, g.Destination.Y),
			strconv.FormatBool(g.HeadingBack),
			time.UnixMilli(g.ArrivalTime).UTC().Format(time.RFC3339),
		}
		if err := moving.Append(row); err != nil {
			return err
		}
	}
	return moving.Render()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64)
}
