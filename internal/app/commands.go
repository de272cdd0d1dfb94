package app

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/sha1n/cuvren/internal/batch"
	"github.com/sha1n/cuvren/internal/catalog"
	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/domain"
	"github.com/sha1n/cuvren/internal/profiles"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const timeLayout = "2006-01-02 15:04:05"

// AddCommands attaches every subcommand to root.
func AddCommands(root *cobra.Command, params RunParams, version string) {
	root.AddCommand(
		newRunCommand(params),
		newPreviewCommand(params),
		newProfilesCommand(params),
		newSearchCommand(params),
		newHistoryCommand(params),
		newInspectCommand(params),
		newServeCommand(params, version),
	)
}

// withEnv sets up an Env for the duration of a command.
func withEnv(params RunParams, fn func(cmd *cobra.Command, env *Env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		env, err := Setup(params, cmd.Flags())
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, env.Close()) }()

		return fn(cmd, env, args)
	}
}

func newRunCommand(params RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FOLDER...",
		Short: "Rename and/or modify the documents found in the given folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			flags := cmd.Flags()
			profile, _ := flags.GetString("profile")
			rename, _ := flags.GetBool("rename")
			mutate, _ := flags.GetString("mutate")
			report, _ := flags.GetString("report")

			mode, err := document.ParseMutationMode(mutate)
			if err != nil {
				return err
			}

			res, err := env.Process(cmd.Context(), profile, batch.Options{
				Folders:    args,
				Rename:     rename,
				Mutate:     mode != document.ModeNone,
				Mode:       mode,
				ReportPath: report,
				Progress: func(done, total int) {
					slog.Info("Progress", "done", done, "total", total)
				},
			})
			if res != nil {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprint(out, batch.FormatReport(res))
				if res.ReportPath != "" {
					_, _ = fmt.Fprintf(out, "\nReport: %s\n", res.ReportPath)
				}
			}
			return err
		}),
	}
	RegisterRunFlags(cmd.Flags())
	return cmd
}

func newPreviewCommand(params RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the names a profile produces for a sample invoice",
		Args:  cobra.NoArgs,
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, _ []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			lines, err := env.Preview(cmd.Context(), profile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, l := range lines {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", l.Kind, l.Name)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringP("profile", "p", "", "Naming profile (defaults to the active profile)")
	return cmd
}

func newProfilesCommand(params RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage naming profiles",
	}

	list := &cobra.Command{
		Use:   "list [FILTER]",
		Short: "List profiles, optionally those whose name contains FILTER",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			active := ""
			if p, err := env.Store.Active(); err == nil {
				active = p.Name
			}

			out := cmd.OutOrStdout()
			for _, p := range env.Store.List(filter) {
				marker := " "
				if p.Name == active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", marker, p.Name)
			}
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show [NAME]",
		Short: "Print a profile (the active one when NAME is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			p, err := env.Store.Resolve(name)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(p)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}),
	}

	set := &cobra.Command{
		Use:   "set NAME",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			p, err := env.Store.Get(args[0])
			if errors.Is(err, profiles.ErrNotFound) {
				p = profiles.Profile{Name: args[0]}
			} else if err != nil {
				return err
			}

			flags := cmd.Flags()
			for flag, field := range map[string]*string{
				"result":  &p.Result,
				"invoice": &p.Invoice,
				"xml":     &p.XML,
				"pdf":     &p.PDF,
			} {
				if flags.Changed(flag) {
					*field, _ = flags.GetString(flag)
				}
			}

			if err := env.Store.Put(p); err != nil {
				return err
			}
			if activate, _ := flags.GetBool("activate"); activate {
				return env.Store.Activate(p.Name)
			}
			return nil
		}),
	}
	RegisterProfileFlags(set.Flags())

	remove := &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(params, func(_ *cobra.Command, env *Env, args []string) error {
			return env.Store.Delete(args[0])
		}),
	}

	activate := &cobra.Command{
		Use:   "activate NAME",
		Short: "Use a profile when a run names none",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(params, func(_ *cobra.Command, env *Env, args []string) error {
			return env.Store.Activate(args[0])
		}),
	}

	cmd.AddCommand(list, show, set, remove, activate)
	return cmd
}

func newSearchCommand(params RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search files renamed or modified by past runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			flags := cmd.Flags()
			kindFlag, _ := flags.GetString("kind")
			limit, _ := flags.GetInt("limit")

			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			req := catalog.SearchRequest{Kind: kind, Limit: limit}
			if len(args) == 1 {
				req.Query = args[0]
			}

			res, err := env.Search(req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KIND\tINVOICE\tCUV\tACTION\tPATH")
			for _, hit := range res.Hits {
				r := hit.Record
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Kind, r.InvoiceNumber, r.UniqueCode, r.Action, r.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d matches\n", len(res.Hits), res.Total)
			return err
		}),
	}
	cmd.Flags().StringP("kind", "k", "", "Filter by kind: result, invoice, xml or pdf")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of results")
	return cmd
}

func newHistoryCommand(params RunParams) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the last run of every processed folder",
		Args:  cobra.NoArgs,
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, _ []string) error {
			states, err := env.Catalog.History()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FOLDER\tLAST RUN\tRENAMED\tMUTATED\tERRORS")
			for _, s := range states {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
					s.Path, s.LastRun.Format(timeLayout), s.Counts.Renamed(), s.Counts.Mutated, s.Errors)
			}
			return w.Flush()
		}),
	}
}

func newInspectCommand(params RunParams) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the naming and validation fields of a result document",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, args []string) error {
			doc, err := env.Inspect(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Invoice:\t%s\n", doc.InvoiceNumber)
			_, _ = fmt.Fprintf(w, "Process:\t%s\n", doc.ProcessID)
			_, _ = fmt.Fprintf(w, "Passed:\t%t\n", doc.Passed)
			_, _ = fmt.Fprintf(w, "CUV:\t%s\n", doc.UniqueCode)
			_, _ = fmt.Fprintf(w, "Validations:\t%d\n", len(doc.Validations))
			for _, v := range doc.Validations {
				_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", v.Class, v.Code, v.Observation)
			}
			return w.Flush()
		}),
	}
}

func newServeCommand(params RunParams, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the renaming tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: withEnv(params, func(cmd *cobra.Command, env *Env, _ []string) error {
			return Serve(cmd.Context(), env, params.CustomIOTransport, version)
		}),
	}
}
