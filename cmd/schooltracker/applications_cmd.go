package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

func applicationsCmd(env envFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "List and manage program applications",
	}
	cmd.AddCommand(applicationsListCmd(env))
	cmd.AddCommand(applicationsGetCmd(env))
	cmd.AddCommand(applicationsCreateCmd(env))
	cmd.AddCommand(applicationsUpdateCmd(env))
	cmd.AddCommand(applicationsDeleteCmd(env))
	cmd.AddCommand(applicationsStatsCmd(env))
	return cmd
}

func applicationsListCmd(env envFunc) *cobra.Command {
	var force bool
	var institution string
	criteria := syncstore.Filter{}
	var status, degreeType, search, ordering string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()
			if err := a.requireSignedIn(); err != nil {
				return err
			}

			if err := a.applications.Fetch(ctx, force); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			if institution != "" {
				return out.print(a.applications.ByInstitution(institution))
			}

			criteria["status"] = status
			criteria["degree_type"] = degreeType
			criteria["search"] = search
			criteria["ordering"] = ordering
			if err := a.applications.Filter(ctx, criteria); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			return out.print(a.applications.FilteredView())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache and fetch from the server")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&degreeType, "degree-type", "", "filter by degree type")
	cmd.Flags().StringVar(&search, "search", "", "match program name or department")
	cmd.Flags().StringVar(&ordering, "ordering", "", "server-side ordering, e.g. -created_at")
	cmd.Flags().StringVar(&institution, "institution", "", "only applications to this institution id")
	return cmd
}

func applicationsGetCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one application in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := a.applications.Get(ctx, id)
			if err != nil {
				return &cliError{msg: gateway.UserMessage(err, "Failed to load application"), err: err}
			}
			return out.print(app)
		},
	}
}

type applicationFlags struct {
	institutionID string
	program       string
	degreeType    string
	department    string
	status        string
	startDate     string
	submittedDate string
	decisionDate  string
	tuitionFee    string
	notes         string
}

func (f *applicationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.institutionID, "institution-id", "", "institution id")
	cmd.Flags().StringVar(&f.program, "program", "", "program name")
	cmd.Flags().StringVar(&f.degreeType, "degree-type", "", "degree type")
	cmd.Flags().StringVar(&f.department, "department", "", "department")
	cmd.Flags().StringVar(&f.status, "status", "", "application status")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "program start date")
	cmd.Flags().StringVar(&f.submittedDate, "submitted-date", "", "date submitted")
	cmd.Flags().StringVar(&f.decisionDate, "decision-date", "", "decision date")
	cmd.Flags().StringVar(&f.tuitionFee, "tuition-fee", "", "tuition fee")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

// payload includes only the flags the user actually set.
func (f *applicationFlags) payload(cmd *cobra.Command) syncstore.Payload {
	p := syncstore.Payload{}
	set := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			p[key] = value
		}
	}
	set("institution-id", "institution_id", f.institutionID)
	set("program", "program_name", f.program)
	set("degree-type", "degree_type", f.degreeType)
	set("department", "department", f.department)
	set("status", "status", f.status)
	set("start-date", "start_date", f.startDate)
	set("submitted-date", "submitted_date", f.submittedDate)
	set("decision-date", "decision_date", f.decisionDate)
	set("tuition-fee", "tuition_fee", f.tuitionFee)
	set("notes", "notes", f.notes)
	return p
}

func applicationsCreateCmd(env envFunc) *cobra.Command {
	flags := &applicationFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			created := a.applications.Create(ctx, flags.payload(cmd))
			if created == nil {
				return a.lastError("Failed to create application")
			}
			return out.print(created)
		},
	}
	flags.register(cmd)
	return cmd
}

func applicationsUpdateCmd(env envFunc) *cobra.Command {
	flags := &applicationFlags{}
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			updated := a.applications.Update(ctx, id, flags.payload(cmd))
			if updated == nil {
				return a.lastError("Failed to update application")
			}
			return out.print(updated)
		},
	}
	flags.register(cmd)
	return cmd
}

func applicationsDeleteCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutationOutcome(out, a.applications.Remove(ctx, id))
		},
	}
}

func applicationsStatsCmd(env envFunc) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count applications per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()
			if err := a.requireSignedIn(); err != nil {
				return err
			}

			if err := a.applications.Fetch(ctx, force); err != nil {
				return a.lastError(gateway.UserMessage(err, ""))
			}
			return out.print(a.applications.CountByStatus())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache and fetch from the server")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &cliError{msg: "id must be a positive integer", err: err}
	}
	return id, nil
}

func mutationOutcome(out printer, res syncstore.MutationResult) error {
	if !res.Success {
		return &cliError{msg: res.Message}
	}
	out.message("%s", res.Message)
	return nil
}
