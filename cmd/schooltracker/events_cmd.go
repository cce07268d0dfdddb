package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-schooltracker-client/events"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

func eventsCmd(env envFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and manage calendar events",
	}
	cmd.AddCommand(eventsListCmd(env))
	cmd.AddCommand(eventsCreateCmd(env))
	cmd.AddCommand(eventsDeleteCmd(env))
	return cmd
}

func eventsListCmd(env envFunc) *cobra.Command {
	var force bool
	var application int64
	var color, search, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()
			if err := a.requireSignedIn(); err != nil {
				return err
			}

			if err := a.events.Fetch(ctx, force); err != nil {
				return a.lastError(gateway.UserMessage(err, "Failed to load events"))
			}
			if application > 0 {
				list, err := a.events.ForApplication(ctx, application)
				if err != nil {
					return &cliError{msg: gateway.UserMessage(err, "Failed to load events"), err: err}
				}
				return out.print(list)
			}
			if from != "" || to != "" {
				start, end, err := dateRange(from, to)
				if err != nil {
					return err
				}
				return out.print(a.events.Between(start, end))
			}

			criteria := syncstore.Filter{"event_color": color, "search": search}
			if err := a.events.Filter(ctx, criteria); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			return out.print(a.events.FilteredView())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache and fetch from the server")
	cmd.Flags().Int64Var(&application, "application", 0, "only events of this application")
	cmd.Flags().StringVar(&color, "color", "", "filter by color")
	cmd.Flags().StringVar(&search, "search", "", "match title or notes")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	return cmd
}

func dateRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if from != "" {
		if start, err = time.Parse(time.DateOnly, from); err != nil {
			return start, end, &cliError{msg: "--from must be YYYY-MM-DD", err: err}
		}
	}
	if to != "" {
		if end, err = time.Parse(time.DateOnly, to); err != nil {
			return start, end, &cliError{msg: "--to must be YYYY-MM-DD", err: err}
		}
	}
	return start, end, nil
}

func eventsCreateCmd(env envFunc) *cobra.Command {
	var application int64
	var title, color, date, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an event to an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			payload := syncstore.Payload{
				"application": application,
				"event_title": title,
				"event_color": color,
				"event_date":  date,
			}
			if notes != "" {
				payload["notes"] = notes
			}
			created := a.events.Create(ctx, payload)
			if created == nil {
				return a.lastError("Failed to add event")
			}
			return out.print(created)
		},
	}
	cmd.Flags().Int64Var(&application, "application", 0, "application id")
	cmd.Flags().StringVar(&title, "title", "", "event title")
	cmd.Flags().StringVar(&color, "color", events.ColorPrimary, "danger, success, primary or warning")
	cmd.Flags().StringVar(&date, "date", "", "event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("application")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func eventsDeleteCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutationOutcome(out, a.events.Remove(ctx, id))
		},
	}
}
