package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/permission"
)

var errDenied = errors.New("permission denied")

func newPermissionsCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the permission matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roles := domain.Roles()
			if role != "" {
				r, err := domain.ParseRole(role)
				if err != nil {
					return fmt.Errorf("%w: %q", err, role)
				}
				roles = []domain.Role{r}
			}
			return writePermissions(cmd.OutOrStdout(), permission.Default(), roles)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only print this role")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var role, resource, action string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one (role, resource, action) cell; exits non-zero when denied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("%w: %q", err, role)
			}
			res, err := domain.ParseResource(resource)
			if err != nil {
				return fmt.Errorf("%w: %q", err, resource)
			}
			act, err := domain.ParseAction(action)
			if err != nil {
				return fmt.Errorf("%w: %q", err, action)
			}

			if !permission.Default().HasPermission(r, res, act) {
				fmt.Fprintf(cmd.OutOrStdout(), "denied: %s may not %s %s\n", r, act, res)
				return errDenied
			}
			fmt.Fprintf(cmd.OutOrStdout(), "allowed: %s may %s %s\n", r, act, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role, e.g. BIOANALYST")
	cmd.Flags().StringVar(&resource, "resource", "", "resource, e.g. results")
	cmd.Flags().StringVar(&action, "action", "", "action, e.g. validate")
	for _, name := range []string{"role", "resource", "action"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// writePermissions prints one row per (role, resource) in matrix order.
func writePermissions(w io.Writer, m *permission.Matrix, roles []domain.Role) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tRESOURCE\tACTIONS")
	for _, role := range roles {
		perms := m.RolePermissions(role)
		for _, res := range domain.Resources() {
			actions := perms[res]
			names := make([]string, len(actions))
			for i, a := range actions {
				names[i] = string(a)
			}
			cell := strings.Join(names, ",")
			if cell == "" {
				cell = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", role, res, cell)
		}
	}
	return tw.Flush()
}
