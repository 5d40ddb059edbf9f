package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var userHeaders = []string{"ID", "NAME", "EMAIL"}

func userRow(u UserResponse) []string {
	return []string{strconv.FormatInt(u.ID, 10), u.Name, u.Email}
}

// NewUserCmd создаёт группу команд для пользователя сессии.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the session user",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the session user",
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := clientFn().GetUser()
				if err != nil {
					return err
				}
				outputFn().Print(userHeaders, [][]string{userRow(*u)}, u)
				return nil
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Load the session user from the backend",
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := clientFn().SyncUser()
				if err != nil {
					return err
				}
				out := outputFn()
				out.Success(fmt.Sprintf("Session user: %d", u.ID))
				out.Print(userHeaders, [][]string{userRow(*u)}, u)
				return nil
			},
		},
		newUserSetCmd(clientFn, outputFn),
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the session user",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := clientFn().ClearUser(); err != nil {
					return err
				}
				outputFn().Success("Session user cleared")
				return nil
			},
		},
	)

	return cmd
}

func newUserSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var u UserResponse

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := clientFn().SetUser(u)
			if err != nil {
				return err
			}
			outputFn().Print(userHeaders, [][]string{userRow(*out)}, out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&u.ID, "id", 0, "User id (required)")
	cmd.Flags().StringVar(&u.Name, "name", "", "User name")
	cmd.Flags().StringVar(&u.Email, "email", "", "User email")
	cmd.MarkFlagRequired("id")

	return cmd
}
