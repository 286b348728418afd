package contacts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

// Opener returns the store the commands operate on, given the parsed CLI options.
type Opener[O any] func(ctx context.Context, options *O) (*ds.ContactsPersisted, io.Closer, error)

type runFunc func(cmd *cobra.Command, args []string, store *ds.ContactsPersisted) error

// exit ends the process after a failed command.
var exit = os.Exit //nolint: gochecknoglobals // replaced in tests

// withStore adapts run to cobra, opening the store from the humacli options.
// A failed command prints its error and exits with status 1.
func withStore[O any](open Opener[O], run runFunc) func(*cobra.Command, []string) {
	return humacli.WithOptions(func(cmd *cobra.Command, args []string, options *O) {
		store, closer, err := open(cmd.Context(), options)
		if err == nil {
			err = run(cmd, args, store)
			closer.Close()
		}
		if err != nil {
			cmd.PrintErrln("Error:", err)
			exit(1)
		}
	})
}

// NewCommand returns the contacts command and its subcommands.
func NewCommand[O any](open Opener[O]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the stored contacts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts, optionally filtered by a search term",
		Args:  cobra.NoArgs,
		Run:   withStore(open, runList),
	}
	list.Flags().StringP("search", "s", "", "match name or email (case-insensitive) or phone")
	list.Flags().String("sort", string(ds.SortInsertion), "order by insertion or name")

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		Run:   withStore(open, runAdd),
	}
	contactFlags(add)

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the fields of a contact, unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		Run:   withStore(open, runUpdate),
	}
	contactFlags(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact after confirmation",
		Args:  cobra.ExactArgs(1),
		Run:   withStore(open, runDelete),
	}
	del.Flags().BoolP("yes", "y", false, "confirm without prompting")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count contacts",
		Args:  cobra.NoArgs,
		Run:   withStore(open, runStats),
	}

	cmd.AddCommand(list, add, update, del, stats)
	return cmd
}

func contactFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "contact name (required)")
	cmd.Flags().String("phone", "", "phone number (required)")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("address", "", "postal address")
}

// contactData reads the contact flags, keeping base values for unset flags.
func contactData(cmd *cobra.Command, base ds.ContactData) ds.ContactData {
	for name, dst := range map[string]*string{
		"name":    &base.Name,
		"phone":   &base.Phone,
		"email":   &base.Email,
		"address": &base.Address,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return base
}

func runList(cmd *cobra.Command, _ []string, store *ds.ContactsPersisted) error {
	search, _ := cmd.Flags().GetString("search")
	order, _ := cmd.Flags().GetString("sort")
	contacts := ds.SortContacts(ds.FilterContacts(store.List(cmd.Context()), search), ds.SortOrder(order))
	if len(contacts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No contacts found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint: mnd // padding
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tADDRESS")
	for _, c := range contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, orNA(c.Email), orNA(c.Address))
	}
	return w.Flush()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func runAdd(cmd *cobra.Command, _ []string, store *ds.ContactsPersisted) error {
	c, _, err := store.Add(cmd.Context(), contactData(cmd, ds.ContactData{}))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Contact %q added with id %s.\n", c.Name, c.ID)
	return nil
}

func lookup(cmd *cobra.Command, store *ds.ContactsPersisted, arg string) (ds.Contact, error) {
	id, err := ds.ParseContactID(arg)
	if err != nil {
		return ds.Contact{}, fmt.Errorf("contact %s: %w", arg, ds.ErrObjectNotFound)
	}
	c, err := store.Get(cmd.Context(), id)
	if err != nil {
		return ds.Contact{}, fmt.Errorf("contact %s: %w", arg, err)
	}
	return c, nil
}

func runUpdate(cmd *cobra.Command, args []string, store *ds.ContactsPersisted) error {
	c, err := lookup(cmd, store, args[0])
	if err != nil {
		return err
	}
	c, _, err = store.Update(cmd.Context(), c.ID, contactData(cmd, c.Data()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Contact %q updated.\n", c.Name)
	return nil
}

func runDelete(cmd *cobra.Command, args []string, store *ds.ContactsPersisted) error {
	c, err := lookup(cmd, store, args[0])
	if err != nil {
		return err
	}
	ticket, err := store.RequestDelete(cmd.Context(), c.ID)
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirm(cmd, c.Name) {
		store.CancelDelete(cmd.Context(), ticket.Token)
		fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
		return nil
	}

	if _, err = store.ConfirmDelete(cmd.Context(), c.ID, ticket.Token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Contact %q deleted.\n", c.Name)
	return nil
}

// confirm prompts on the command input. No answer, as on a closed input, is a no.
func confirm(cmd *cobra.Command, name string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete %q? (y/N): ", name)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func runStats(cmd *cobra.Command, _ []string, store *ds.ContactsPersisted) error {
	stats := store.Stats(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Total contacts: %d\n", stats.Total)
	fmt.Fprintf(cmd.OutOrStdout(), "Contacts with email: %d\n", stats.WithEmail)
	fmt.Fprintf(cmd.OutOrStdout(), "Contacts with address: %d\n", stats.WithAddress)
	return nil
}
