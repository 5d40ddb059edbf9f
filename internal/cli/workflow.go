package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var workflowHeaders = []string{"ID", "NAME", "STATUS", "DESCRIPTION"}

func workflowRow(w WorkflowResponse) []string {
	return []string{strconv.FormatInt(w.ID, 10), w.Name, w.Status, w.Description}
}

// NewWorkflowCmd создаёт группу команд для работы с workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowOpenCmd(clientFn, outputFn),
		newWorkflowCloseCmd(clientFn, outputFn),
		newWorkflowValidateCmd(clientFn, outputFn),
		newWorkflowCommitCmd(clientFn, outputFn),
		newWorkflowReopenCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows of the session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			workflows, err := clientFn().ListWorkflows()
			if err != nil {
				return err
			}

			rows := make([][]string, len(workflows))
			for i, w := range workflows {
				rows[i] = workflowRow(w)
			}
			outputFn().Print(workflowHeaders, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			wf, err := clientFn().CreateWorkflow(name, description)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %d", wf.ID))
			out.Print(workflowHeaders, [][]string{workflowRow(*wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Workflow description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newWorkflowOpenCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "open ID",
		Short: "Open a workflow and show its task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := clientFn().OpenWorkflow(id)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Workflow %d %q: %s", e.Workflow.ID, e.Workflow.Name, e.State))
			printTasks(out, e.Tasks, e)
			return nil
		},
	}
}

func newWorkflowCloseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "close ID",
		Short: "Close the editor of a workflow (the draft is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := clientFn().CloseWorkflow(id); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Workflow closed: %d", id))
			return nil
		},
	}
}

func newWorkflowValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate ID",
		Short: "Validate the whole task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			report, err := clientFn().Validate(id)
			if err != nil {
				return err
			}

			out := outputFn()
			if report.Valid {
				out.Success("Task list is valid")
			} else {
				out.Error(fmt.Sprintf("first invalid task at position %d (%s)",
					report.FirstOffendingPosition, report.FirstOffending))
			}
			out.Print([]string{"LOCAL_ID", "FIELDS"}, violationRows(report.Violations), report)
			return nil
		},
	}
}

func newWorkflowCommitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "commit ID",
		Short: "Validate and submit the task list to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			res, err := clientFn().Commit(id)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Code == "INVALID_TASK" && len(apiErr.Details) > 0 {
					out.Error("task list has invalid tasks; run validate for details")
				}
				return err
			}

			out.Success(fmt.Sprintf("Committed %d tasks", res.TaskCount))
			if out.jsonMode {
				out.JSON(res)
			}
			return nil
		},
	}
}

func newWorkflowReopenCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen ID",
		Short: "Allow editing a committed task list again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := clientFn().Reopen(id)
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Workflow %d: %s", e.Workflow.ID, e.State))
			return nil
		},
	}
}

// ---- helpers ----

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid workflow id: %s", s)
	}
	return id, nil
}

func violationRows(v map[string][]string) [][]string {
	ids := make([]string, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id, strings.Join(v[id], ", ")}
	}
	return rows
}
