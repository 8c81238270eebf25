package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"techfest_backend/internals/features/admin/view"
	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/registrations/model"
	"techfest_backend/internals/features/registrations/repository"
	helper "techfest_backend/internals/helpers"
)

var registrationsCmd = &cobra.Command{
	Use:     "registrations",
	Aliases: []string{"regs"},
	Short:   "Inspect registrations",
}

var registrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registrations, newest first",
	RunE:  runRegistrationsList,
}

var registrationsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search by name, one query per stdin line",
	Long: `Reads search text line by line from stdin. Lines arriving within the debounce
window are coalesced, so only the last query of a burst is run. Each run prints
the first page of matches.`,
	RunE: runRegistrationsSearch,
}

func init() {
	registrationsCmd.AddCommand(registrationsListCmd)
	registrationsCmd.AddCommand(registrationsSearchCmd)

	for _, c := range []*cobra.Command{registrationsListCmd, registrationsSearchCmd} {
		c.Flags().String("status", view.StatusAll, "Payment status: pending, paid, failed, refunded, spot or all")
		c.Flags().String("event", "", "Event slug")
		c.Flags().Int("per-page", helper.DefaultPerPage, "Page size: 10, 25, 50 or 100")
	}
	registrationsListCmd.Flags().String("q", "", "Name search")
	registrationsListCmd.Flags().Int("page", 1, "Page number")
	registrationsSearchCmd.Flags().Duration("debounce", view.SearchDelay, "Quiet period before a query runs")
}

func filterFlags(cmd *cobra.Command) (view.Filter, int) {
	status, _ := cmd.Flags().GetString("status")
	event, _ := cmd.Flags().GetString("event")
	perPage, _ := cmd.Flags().GetInt("per-page")
	return view.Filter{Status: status, Event: event}, perPage
}

func loadRows(ctx context.Context, b *Backends) ([]model.RegistrationModel, error) {
	return repository.New(b.DB).ListAll(ctx)
}

func runRegistrationsList(cmd *cobra.Command, args []string) error {
	b, err := connect(false)
	if err != nil {
		return err
	}
	defer b.Close()

	rows, err := loadRows(cmd.Context(), b)
	if err != nil {
		return err
	}
	f, perPage := filterFlags(cmd)
	f.Search, _ = cmd.Flags().GetString("q")
	page, _ := cmd.Flags().GetInt("page")

	v := view.New(perPage)
	v.SetStatus(f.Status)
	v.SetEvent(f.Event)
	v.SetSearch(f.Search)
	v.SetPage(page)
	return printPage(cmd.OutOrStdout(), v.Render(rows), b.Catalog)
}

func runRegistrationsSearch(cmd *cobra.Command, args []string) error {
	b, err := connect(false)
	if err != nil {
		return err
	}
	defer b.Close()

	rows, err := loadRows(cmd.Context(), b)
	if err != nil {
		return err
	}
	f, perPage := filterFlags(cmd)
	delay, _ := cmd.Flags().GetDuration("debounce")

	_, err = searchLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), rows, b.Catalog, f, perPage, delay)
	return err
}

// searchLoop feeds stdin lines through the debouncer and prints the first page
// for every query that survives it. It returns the queries that ran.
func searchLoop(ctx context.Context, in io.Reader, out io.Writer, rows []model.RegistrationModel, cat *catalog.Catalog, f view.Filter, perPage int, delay time.Duration) ([]string, error) {
	v := view.New(perPage)
	v.SetStatus(f.Status)
	v.SetEvent(f.Event)

	fire := make(chan string, 16)
	d := view.NewDebouncer(delay, func(q string) { fire <- q })
	defer d.Stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	var ran []string
	run := func(q string) error {
		ran = append(ran, q)
		v.SetSearch(q)
		fmt.Fprintf(out, "Search %q\n", q)
		return printPage(out, v.Render(rows), cat)
	}

	for {
		select {
		case <-ctx.Done():
			return ran, ctx.Err()
		case q := <-fire:
			if err := run(q); err != nil {
				return ran, err
			}
		case l, ok := <-lines:
			if ok {
				d.Push(l)
				continue
			}
			// stdin closed: run what is still pending
			d.Flush()
			for {
				select {
				case q := <-fire:
					if err := run(q); err != nil {
						return ran, err
					}
				default:
					select {
					case err := <-scanErr:
						return ran, err
					default:
						return ran, nil
					}
				}
			}
		}
	}
}

func printPage(out io.Writer, p view.Page, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER ID\tNAME\tEMAIL\tEVENTS\tAMOUNT\tSTATUS\tCONFIRMED\tCREATED")
	for _, r := range p.Items {
		name, email := "", ""
		if r.User != nil {
			name, email = r.User.FullName(), r.User.UserEmail
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\t%t\t%s\n",
			r.RegistrationOrderID,
			name,
			email,
			cat.Names(r.RegistrationSelectedEvents),
			r.RegistrationPaymentAmount.StringFixed(2),
			r.RegistrationPaymentCurrency,
			r.RegistrationPaymentStatus,
			r.RegistrationParticipationConfirmed,
			r.RegistrationCreatedAt.Format("2006-01-02 15:04"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "Page %d of %d (%d matching, %d per page)\n", p.Page, p.TotalPages, p.Total, p.PerPage)
	return err
}
