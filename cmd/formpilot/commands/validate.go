package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arrivalkit/formpilot/pkg/formdef"
)

var validateCmd = &cobra.Command{
	Use:   "validate <form.yaml>",
	Short: "Validate a form definition table",
	Long: `Validate parses a form definition YAML file and checks it for
structural errors: unknown control types or strategies, duplicate keys,
dangling or cyclic dependencies, and missing navigation locators.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := formdef.Load(args[0])
		if err != nil {
			return err
		}
		fields := 0
		for i := range form.Steps {
			fields += len(form.Steps[i].Fields)
		}
		fmt.Printf("%s is valid: destination %s, version %s, %d steps, %d fields\n",
			args[0], form.DestinationID, form.FormVersion, len(form.Steps), fields)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
