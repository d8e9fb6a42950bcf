package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/navigation"
)

func SignInCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signin <email> <password>",
		Short: "Sign in with email and password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.SignIn(a.Ctx, args[0], args[1]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func SignUpCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email> <password>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.SignUp(a.Ctx, args[0], args[1]); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func SignOutCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and stop every live listener",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Session.SignOut()
			a.show()
			return nil
		},
	}
}

func RoleCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "role <pt|dancer> [name]",
		Short: "Choose your role once after signing up",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := domain.ParseRole(args[0])
			if !ok {
				return navigation.ErrInvalidRole
			}
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			if err := a.Session.SelectRole(a.Ctx, name, role); err != nil {
				return err
			}
			a.show()
			return nil
		},
	}
}

func NavCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "nav <check|pt|avail|msg|res>",
		Short: "Open a screen; screens your role cannot open go to your start screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := navigation.Screen(strings.ToLower(args[0]))
			screen, err := a.Session.Navigate(a.Ctx, target)
			if err != nil {
				return err
			}
			if screen != target {
				fmt.Fprintf(a.Out, "↪ %s is not available, showing %s\n", target, screen)
			}
			a.show()
			return nil
		},
	}
}

func ShowCmd(a *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.show()
			return nil
		},
	}
}
