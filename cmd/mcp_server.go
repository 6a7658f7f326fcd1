package cmd

import (
	"github.com/spf13/cobra"

	"plancraft/internal/mcpserver"
	"plancraft/internal/reference"
	"plancraft/internal/schedule"
	"plancraft/internal/testplan"
	"plancraft/pkg/logging"
)

func newMCPServerCmd() *cobra.Command {
	var references bool
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the plancraft validators as MCP tools over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so that AI assistants
can check assertions and validate or preview test plan and schedule drafts.

Configure it in your assistant's MCP settings, for example:

  {
    "mcpServers": {
      "plancraft": {"command": "plancraft", "args": ["mcp-server"]}
    }
  }

With --references the reference lists are fetched from the execution
service at start so that selected IDs are checked too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			var opts []mcpserver.Option
			if references {
				c, err := env.newClient(ctx)
				if err != nil {
					return err
				}
				loader := reference.NewLoader(c)
				defer loader.Close()
				if err := loader.Open(ctx, testplan.SuiteOptions, schedule.PlanOptions); err != nil {
					logging.Warn("MCP", "Reference lists unavailable, membership checks limited: %v", err)
				}
				opts = append(opts, mcpserver.WithValidationContext(loader.ValidationContext))
			}

			return mcpserver.New(GetVersion(), opts...).Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&references, "references", false, "Check selected IDs against the execution service")
	return cmd
}
