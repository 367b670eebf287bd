package main

import (
	"errors"

	"dashboard_backend/internal/database"
	"dashboard_backend/internal/export"
	"dashboard_backend/internal/repositories"
	"dashboard_backend/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportToS3   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all settings records as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		var dest export.Destination
		switch {
		case exportToS3:
			if cfg.Export.S3Bucket == "" {
				return errors.New("--s3 requires export.s3_bucket (EXPORT_S3_BUCKET)")
			}
			s3Dest, err := export.NewS3Destination(ctx, cfg.Export.S3Bucket, cfg.Export.S3Key, cfg.Export.S3Region, cfg.Export.S3Endpoint)
			if err != nil {
				return err
			}
			dest = s3Dest
		case exportOutput != "" && exportOutput != "-":
			dest = export.FileDestination{Path: exportOutput}
		default:
			dest = export.WriterDestination{W: cmd.OutOrStdout()}
		}

		n, err := export.Run(ctx, repositories.NewSettingsRepository(db), cfg.Export.PageSize, dest)
		if err != nil {
			return err
		}
		utils.LogInfo("Export complete", map[string]interface{}{"records": n, "s3": exportToS3, "output": exportOutput})
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	exportCmd.Flags().BoolVar(&exportToS3, "s3", false, "upload to the configured S3 bucket instead of a file")
}
