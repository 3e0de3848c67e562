package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/billingmock/pkg/cli/internal/output"
	"github.com/getmockd/billingmock/pkg/params"
	"github.com/getmockd/billingmock/pkg/schema"
)

// KindOutput describes one registered kind.
type KindOutput struct {
	Name     string                 `json:"name"`
	Prefix   string                 `json:"prefix"`
	Required []string               `json:"required"`
	Template map[string]interface{} `json:"template"`
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List registered resource kinds and their default templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		n := params.New(reg, cfg.DefaultCurrency, params.Determinism(cfg.Determinism))
		return writeKinds(cmd.OutOrStdout(), describeKinds(reg, n), jsonOutput)
	},
}

func describeKinds(reg *schema.Registry, n *params.Normalizer) []KindOutput {
	names := reg.Names()
	out := make([]KindOutput, 0, len(names))
	for _, name := range names {
		k, _ := reg.Get(name)
		required := []string{}
		for _, f := range k.RequiredFields() {
			required = append(required, f.Name)
		}
		out = append(out, KindOutput{
			Name:     k.Name,
			Prefix:   k.Prefix,
			Required: required,
			Template: n.Template(k.Name),
		})
	}
	return out
}

func writeKinds(w io.Writer, kinds []KindOutput, asJSON bool) error {
	if asJSON {
		return output.JSON(w, kinds)
	}
	tw := output.Table(w)
	fmt.Fprintln(tw, "KIND\tPREFIX\tREQUIRED")
	for _, k := range kinds {
		prefix := k.Prefix
		if prefix == "" {
			prefix = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Name, prefix, strings.Join(k.Required, ", "))
	}
	return tw.Flush()
}
