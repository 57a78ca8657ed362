package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourorg/oas2postman/internal/postman"
	"github.com/yourorg/oas2postman/internal/store"
)

func newHistoryCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded conversion runs",
	}
	cmd.AddCommand(newHistoryListCmd(g))
	cmd.AddCommand(newHistoryShowCmd(g))
	cmd.AddCommand(newHistoryExportCmd(g))
	cmd.AddCommand(newHistoryDeleteCmd(g))
	return cmd
}

// withStore opens the history database for the duration of fn.
func (g *globals) withStore(cmd *cobra.Command, fn func(store.Store) error) error {
	cfg, _, err := g.load(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("history is disabled (store.enabled is false)")
	}
	defer st.Close()
	return fn(st)
}

func newHistoryListCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{Use: "list", Short: "List runs, newest first", RunE: func(cmd *cobra.Command, args []string) error {
		return g.withStore(cmd, func(st store.Store) error {
			runs, err := st.ListRuns(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tSTATUS\tTITLE\tREQUESTS\tINPUT\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.Source, r.Status, r.Title, r.RequestCount, r.Input, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		})
	}}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 for all)")
	return cmd
}

func newHistoryShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{Use: "show <run-id>", Short: "Show run details", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return g.withStore(cmd, func(st store.Store) error {
			run, err := st.GetRun(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		})
	}}
}

func newHistoryExportCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{Use: "export <run-id>", Short: "Write the collection of a run", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return g.withStore(cmd, func(st store.Store) error {
			data, err := st.GetCollection(args[0])
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("run %s has no collection", args[0])
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := postman.Write(output, data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", output)
			return nil
		})
	}}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func newHistoryDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{Use: "delete <run-id>", Short: "Delete a run", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return g.withStore(cmd, func(st store.Store) error {
			if err := st.DeleteRun(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		})
	}}
}
