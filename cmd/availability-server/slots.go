package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/availability/internal/domain/availability"
	"github.com/clinicops/availability/internal/domain/scheduling"
)

type slotsOptions struct {
	doctorID string
	date     string
	from     string
	to       string
	calendar bool
	workers  int
}

// slotsCmd computes availability from a JSON schedule file without a
// database. The file holds a template, overrides, blocks, appointments and a
// slot configuration.
func slotsCmd() *cobra.Command {
	var opts slotsOptions
	cmd := &cobra.Command{
		Use:   "slots <schedule.json>",
		Short: "Compute slots or available dates from a schedule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			logger := newLogger(cmd.ErrOrStderr(), "development", "warn")
			return runSlots(cmd.OutOrStdout(), f, opts, logger)
		},
	}
	cmd.Flags().StringVar(&opts.doctorID, "doctor", "offline", "Doctor identifier used in log output")
	cmd.Flags().StringVar(&opts.date, "date", "", "Date (YYYY-MM-DD) to list slots for")
	cmd.Flags().StringVar(&opts.from, "from", "", "Start of the date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "End of the date range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.calendar, "calendar", false, "Print per-day slot counts instead of available dates")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "Days computed in parallel for a range")
	return cmd
}

func runSlots(w io.Writer, r io.Reader, opts slotsOptions, logger zerolog.Logger) error {
	var in availability.RangeInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("decode schedule: %w", err)
	}
	if in.Config == (availability.SlotConfiguration{}) {
		in.Config = scheduling.DefaultSlotConfiguration
	}
	if err := availability.ValidateSlotConfiguration(in.Config); err != nil {
		return err
	}

	engine := availability.NewEngine(
		availability.WithLogger(logger),
		availability.WithWorkers(opts.workers),
	)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if opts.date != "" {
		date, err := civil.ParseDate(opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		slots, err := engine.ResolveSlotsForDate(opts.doctorID, date, in.ForDate(date))
		if err != nil {
			return err
		}
		if slots == nil {
			slots = []availability.Slot{}
		}
		return enc.Encode(slots)
	}

	if opts.from == "" || opts.to == "" {
		return errors.New("either --date or both --from and --to are required")
	}
	from, err := civil.ParseDate(opts.from)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := civil.ParseDate(opts.to)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	if to.Before(from) {
		return errors.New("--to must not be before --from")
	}
	rng := availability.DateRange{Start: from, End: to}

	if opts.calendar {
		return enc.Encode(engine.SummarizeRange(opts.doctorID, rng, in))
	}
	dates := engine.ResolveAvailableDates(opts.doctorID, rng, in)
	if dates == nil {
		dates = []civil.Date{}
	}
	return enc.Encode(dates)
}
