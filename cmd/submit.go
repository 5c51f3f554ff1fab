package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ortelius/gost-sbom/database"
	sbomevents "github.com/ortelius/gost-sbom/events/modules/sboms"
	"github.com/ortelius/gost-sbom/internal/config"
)

func newSubmitCmd(configPath *string) *cobra.Command {
	var (
		projectID string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "submit [flags] file",
		Short: "publish an SBOM to the ingestion topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.CheckID(projectID); err != nil {
				return fmt.Errorf("--project: %w", err)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if !cfg.KafkaEnabled() {
				return errors.New("KAFKA_BROKERS is not set")
			}

			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}

			producer := sbomevents.NewSBOMProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
			defer producer.Close()

			if err := producer.PublishSBOMSubmitted(cmd.Context(), projectID, name, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %s to %s\n", args[0], cfg.KafkaTopic)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "target project id")
	cmd.Flags().StringVar(&name, "name", "", "stored SBOM name")
	return cmd
}
