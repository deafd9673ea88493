package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a local file into the service",
	Long: `The ingest command uploads a local file to object storage, records it
as a document, and runs text extraction and indexing inline. Useful for
seeding documents without going through the HTTP API.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("file", "f", "", "Path of the file to ingest")
	ingestCmd.MarkFlagRequired("file")
	ingestCmd.Flags().StringP("owner", "o", "", "Owner ID to record on the document")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	filePath, _ := cmd.Flags().GetString("file")
	owner, _ := cmd.Flags().GetString("owner")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	bucket := viper.GetString("minio.documents_bucket")
	if err := svcs.minio.EnsureBucketExists(ctx, bucket); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	objectName := uuid.New().String() + filepath.Ext(filePath)
	if err := svcs.minio.PutObject(ctx, bucket, objectName, data); err != nil {
		return fmt.Errorf("failed to store file: %v", err)
	}

	filename := filepath.Base(filePath)
	doc, err := svcs.docs.Create(ctx, filename, fmt.Sprintf("%s/%s", bucket, objectName), owner)
	if err != nil {
		return fmt.Errorf("failed to record document: %v", err)
	}

	text, err := svcs.pipeline.Ingest(ctx, doc, filePath)
	if err != nil {
		return fmt.Errorf("failed to ingest document %d: %v", doc.ID, err)
	}

	if text == "" {
		fmt.Printf("Document %d recorded, but no readable text was extracted\n", doc.ID)
		return nil
	}

	fmt.Printf("Document %d ingested (%d characters)\n", doc.ID, len(text))
	return nil
}
