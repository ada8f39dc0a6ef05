package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"neosure-anc-server/internal/risk"
)

type assessOutput struct {
	Result           risk.Result              `json:"result"`
	Observation      risk.ClinicalObservation `json:"observation"`
	IncompleteFields []string                 `json:"incompleteFields"`
}

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Classify a form offline and print the result as JSON",
		Example: `  neosure assess --file visit.json
  cat intake.json | neosure assess --file - --form registration`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			form, _ := cmd.Flags().GetString("form")

			raw, err := readForm(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			var obs risk.ClinicalObservation
			switch form {
			case "visit":
				obs = risk.Normalize(raw)
			case "registration":
				obs = risk.NormalizeRegistration(raw)
			default:
				return fmt.Errorf("unknown form %q: want visit or registration", form)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(assessOutput{
				Result:           risk.Assess(obs),
				Observation:      obs,
				IncompleteFields: risk.MissingFields(obs),
			})
		},
	}
	cmd.Flags().String("file", "", `JSON object of form fields, or "-" for stdin`)
	cmd.Flags().String("form", "visit", "form layout: visit or registration")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readForm(stdin io.Reader, path string) (map[string]any, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open form: %w", err)
		}
		defer f.Close()
		r = f
	}

	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	return raw, nil
}
