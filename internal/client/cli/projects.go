package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/timereport/internal/client/client"
)

func (a *App) Projects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	all := fs.Bool("all", false, "include inactive projects")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.restore(); err != nil {
		return err
	}
	list, err := a.api.Projects(ctx, *all)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No projects")
		return nil
	}
	return printProjects(a.out, list)
}

func printProjects(w io.Writer, list []client.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTART\tEND\tACTIVE\tHOURS\tAMOUNT")
	for _, p := range list {
		end := "-"
		if p.EndDate != nil {
			end = *p.EndDate
		}
		amount := "-"
		if p.TotalAmount != nil {
			amount = fmt.Sprintf("%d", *p.TotalAmount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			p.Name, p.StartDate, end, p.IsActive, formatMinutes(p.TotalMinutes), amount)
	}
	return tw.Flush()
}

func formatMinutes(m int64) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}
