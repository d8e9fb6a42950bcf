package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onpointe/prevention/internal/app"
)

// AppContext holds the client dependencies shared by every command.
type AppContext struct {
	Ctx      context.Context
	Session  *app.App
	Renderer *Renderer
	Logger   *zap.Logger
	Out      io.Writer
}

// Register adds every session command to root.
func Register(root *cobra.Command, a *AppContext) {
	root.AddCommand(SignInCmd(a))
	root.AddCommand(SignUpCmd(a))
	root.AddCommand(SignOutCmd(a))
	root.AddCommand(RoleCmd(a))
	root.AddCommand(NavCmd(a))
	root.AddCommand(CheckInCmd(a))
	root.AddCommand(RosterCmd(a))
	root.AddCommand(DancerCmd(a))
	root.AddCommand(AvailAddCmd(a))
	root.AddCommand(AvailDelCmd(a))
	root.AddCommand(ThreadsCmd(a))
	root.AddCommand(OpenCmd(a))
	root.AddCommand(SendCmd(a))
	root.AddCommand(ReviewCmd(a))
	root.AddCommand(CodeCmd(a))
	root.AddCommand(RedeemCmd(a))
	root.AddCommand(SeedCmd(a))
	root.AddCommand(ExportCmd(a))
	root.AddCommand(ShowCmd(a))
	root.AddCommand(InteractiveCmd(a))
}

// show prints the current screen regardless of what was printed last.
func (a *AppContext) show() {
	a.Renderer.Force(a.Session.State(), a.Session.Sync().View())
}
