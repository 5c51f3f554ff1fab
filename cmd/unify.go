package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ortelius/gost-sbom/internal/unifier"
	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/restapi/modules/sbom"
)

func newUnifyCmd() *cobra.Command {
	var (
		appName      string
		appVersion   string
		manufacturer string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "unify [flags] file file...",
		Short: "merge several SBOMs into one application SBOM",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			documents := make([]*model.Document, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(path)
				if err != nil {
					return err
				}
				documents = append(documents, doc)
			}

			result := unifier.UnifySBOMs(documents, appName, appVersion, manufacturer)
			out, err := json.MarshalIndent(result.BOM, "", "  ")
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := afero.WriteFile(fs, output, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "unified %d components from %d SBOMs into %s\n",
				result.ComponentsCount, result.SourcesCount, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&appName, "name", "n", sbom.DefaultAppName, "application name")
	cmd.Flags().StringVar(&appVersion, "version", sbom.DefaultAppVersion, "application version")
	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "manufacturer name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")
	return cmd
}
