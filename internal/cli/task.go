package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var taskHeaders = []string{"POS", "LOCAL_ID", "TYPE", "NAME"}

func taskRow(t TaskResponse) []string {
	return []string{strconv.Itoa(t.Position), t.LocalID, t.Type, t.Name}
}

func printTasks(out *Output, tasks []TaskResponse, jsonData any) {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(t)
	}
	out.Print(taskHeaders, rows, jsonData)
}

// NewTaskCmd создаёт группу команд для редактирования списка задач.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Edit the task list of a workflow",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskAddCmd(clientFn, outputFn),
		newTaskUpdateCmd(clientFn, outputFn),
		newTaskRemoveCmd(clientFn, outputFn),
		newTaskMoveCmd(clientFn, outputFn),
		newTaskRefsCmd(clientFn, outputFn),
		newTaskLinkCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list WORKFLOW_ID",
		Short: "List tasks in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tasks, err := clientFn().ListTasks(id)
			if err != nil {
				return err
			}
			printTasks(outputFn(), tasks, tasks)
			return nil
		},
	}
}

func newTaskAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var taskType, name, config string

	cmd := &cobra.Command{
		Use:   "add WORKFLOW_ID",
		Short: "Append a task to the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := parseConfig(config)
			if err != nil {
				return err
			}

			out := outputFn()
			task, err := clientFn().AddTask(id, AddTaskRequest{Type: taskType, Name: name, Config: cfg})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task added: %s", task.LocalID))
			out.Print(taskHeaders, [][]string{taskRow(*task)}, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskType, "type", "", "Task type: api or email (required)")
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&config, "config", "{}", "Task config as a JSON object")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newTaskUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, config string

	cmd := &cobra.Command{
		Use:   "update WORKFLOW_ID LOCAL_ID",
		Short: "Change the name or config of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := UpdateTaskRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("config") {
				if req.Config, err = parseConfig(config); err != nil {
					return err
				}
			}

			out := outputFn()
			task, err := clientFn().UpdateTask(id, args[1], req)
			if err != nil {
				return err
			}

			out.Success("Task updated")
			out.Print(taskHeaders, [][]string{taskRow(*task)}, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New task name")
	cmd.Flags().StringVar(&config, "config", "", "Config fields to change as a JSON object")

	return cmd
}

func newTaskRemoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "remove WORKFLOW_ID LOCAL_ID",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := clientFn().RemoveTask(id, args[1]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Task removed: %s", args[1]))
			return nil
		},
	}
}

func newTaskMoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:       "move WORKFLOW_ID LOCAL_ID up|down",
		Short:     "Move a task one position up or down",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := clientFn().MoveTask(id, args[1], args[2])
			if err != nil {
				return err
			}
			printTasks(outputFn(), e.Tasks, e.Tasks)
			return nil
		},
	}
}

func newTaskRefsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "refs WORKFLOW_ID LOCAL_ID",
		Short: "Show tasks an email task can reference and already references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			refs, err := clientFn().ListReferences(id, args[1])
			if err != nil {
				return err
			}

			linked := make(map[string]bool, len(refs.Referenced))
			for _, r := range refs.Referenced {
				linked[r.LocalID] = true
			}
			rows := make([][]string, len(refs.Eligible))
			for i, r := range refs.Eligible {
				rows[i] = []string{strconv.Itoa(r.Position), r.LocalID, r.Name, strconv.FormatBool(linked[r.LocalID])}
			}
			outputFn().Print([]string{"POS", "LOCAL_ID", "NAME", "LINKED"}, rows, refs)
			return nil
		},
	}
}

func newTaskLinkCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "link WORKFLOW_ID LOCAL_ID POSITION",
		Short: "Append a reference to the output of an earlier api task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid position: %s", args[2])
			}

			task, err := clientFn().InsertReference(id, args[1], pos)
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Reference to position %d inserted into %s", pos, task.LocalID))
			return nil
		},
	}
}

func parseConfig(s string) (map[string]any, error) {
	cfg := map[string]any{}
	if s == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return nil, fmt.Errorf("config is not a JSON object: %w", err)
	}
	return cfg, nil
}
