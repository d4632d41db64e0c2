package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/booking-insights/internal/dashboard"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective scoring policy as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := dashboard.PolicyFromConfig(cfg)
		if err := p.Validate(); err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return eris.Wrap(err, "policy: encode yaml")
		}
		return eris.Wrap(enc.Close(), "policy: flush yaml")
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
