package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/marquee/marquee/internal/registry"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shows",
		Short: "Inspect the show library",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List shows in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(true)
			if err != nil {
				return err
			}
			defer db.Close()

			shows, err := registry.New(db.Conn(), zerolog.Nop()).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(shows) == 0 {
				fmt.Fprintln(out, "No shows in the library")
				return nil
			}

			rows := make([][]string, 0, len(shows))
			for _, s := range shows {
				year := ""
				if s.Year > 0 {
					year = strconv.Itoa(s.Year)
				}
				rows = append(rows, []string{
					s.Identifier.Slug(),
					s.Title,
					year,
					string(s.Status),
					s.Path,
					humanize.Time(s.AddedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Slug", "Title", "Year", "Status", "Path", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%s shows\n", humanize.Comma(int64(len(shows))))
			return nil
		},
	})

	return cmd
}
