/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/contract-intel-be/config"
	"github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
	"github.com/tieubaoca/contract-intel-be/utils"
)

// ingestDocumentCmd represents the ingest-document command
var ingestDocumentCmd = &cobra.Command{
	Use:   "ingest-document",
	Short: "Ingest a single contract PDF from the command line",
	Long: `Decodes a contract PDF, stores it, chunks and embeds its text and
indexes the chunks for retrieval, exactly as the HTTP ingest endpoint does.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment as-is")
		}

		configPath, _ := cmd.Flags().GetString("config")
		filePath, _ := cmd.Flags().GetString("file")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if filePath == "" {
			log.Fatal("no input file, use --file")
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		ingestService := buildIngestService(cfg, reinit)
		doc, chunks, err := ingestFile(ingestService, cfg, filePath)
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", filePath, err)
		}
		fmt.Printf("Ingested %s: document %s, %d pages, %d chunks\n",
			doc.Filename, doc.ID, doc.PageCount, chunks)
	},
}

// buildIngestService wires the same ingestion stack the server uses.
func buildIngestService(cfg *config.Config, reinit bool) *service.IngestService {
	docs, _, _, metrics := buildRepositories(cfg)
	index := buildVectorIndex(cfg)
	if reinit {
		if reinitter, ok := index.(interface{ ReInit() error }); ok {
			if err := reinitter.ReInit(); err != nil {
				log.Fatalf("Failed to reinitialize vector index: %v", err)
			}
		}
	}
	segmenter := service.NewSegmenterService(types.DocumentServiceConfig{
		MaxChunkSize: cfg.Pipeline.ChunkSize,
		OverlapSize:  cfg.Pipeline.ChunkOverlap,
	})
	return service.NewIngestService(
		service.NewPDFService(), docs, index, buildEmbedder(cfg), segmenter, metrics)
}

func ingestFile(ingestService *service.IngestService, cfg *config.Config, filePath string) (*types.Document, int, error) {
	pdfBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, 0, err
	}
	if _, err := utils.CopyFileWithTimestamp(filePath, cfg.UploadDir); err != nil {
		return nil, 0, err
	}
	return ingestService.Ingest(context.Background(), pdfBytes, service.GetFileNameWithoutExt(filePath)+".pdf")
}

func init() {
	rootCmd.AddCommand(ingestDocumentCmd)

	ingestDocumentCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
	ingestDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF to ingest")
	ingestDocumentCmd.Flags().BoolP("reinit", "r", false, "Reinitialize the vector index first")
}
