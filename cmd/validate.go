package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/internal/config"
	"github.com/ortelius/gost-sbom/internal/services"
	"github.com/ortelius/gost-sbom/internal/validator"
	"github.com/ortelius/gost-sbom/internal/vcsprobe"
	"github.com/ortelius/gost-sbom/model"
)

// errInvalid makes the process exit non-zero after the report is printed.
var errInvalid = errors.New("sbom is invalid")

func newValidateCmd(configPath *string) *cobra.Command {
	var (
		format     string
		checkVCS   bool
		policyPath string
	)

	cmd := &cobra.Command{
		Use:   "validate [flags] file",
		Short: "validate a CycloneDX SBOM and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if policyPath == "" {
				policyPath = cfg.PolicyFile
			}

			policy, err := validator.LoadPolicy(fs, policyPath)
			if err != nil {
				return err
			}

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			svc := services.NewSBOMService(nil, validator.New(policy),
				vcsprobe.NewProber(
					vcsprobe.WithTimeout(cfg.VCSTimeout),
					vcsprobe.WithMaxRedirects(cfg.VCSMaxRedirects),
					vcsprobe.WithMaxInFlight(cfg.VCSMaxInFlight),
				), zap.NewNop())
			result := svc.Validate(cmd.Context(), doc, format, checkVCS)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !result.Valid {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", validator.FormatOSS, "SBOM format: oss or container")
	cmd.Flags().BoolVar(&checkVCS, "check-vcs", false, "probe VCS references over HTTPS")
	cmd.Flags().StringVarP(&policyPath, "policy", "p", "", "YAML validation policy")
	return cmd
}

func readDocument(path string) (*model.Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	doc, err := model.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
