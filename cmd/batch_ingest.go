/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/contract-intel-be/config"
)

// batchIngestCmd represents the batch-ingest command
var batchIngestCmd = &cobra.Command{
	Use:   "batch-ingest",
	Short: "Ingest every contract PDF in a directory",
	Long: `Walks a directory and runs the full ingestion pipeline on every PDF
found in it. Files that fail are reported and skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment as-is")
		}

		configPath, _ := cmd.Flags().GetString("config")
		directory, _ := cmd.Flags().GetString("directory")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if directory == "" {
			log.Fatal("no input directory, use --directory")
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		ingestService := buildIngestService(cfg, reinit)

		files, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("Failed to read directory: %v", err)
		}
		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".pdf") {
				continue
			}
			filePath := filepath.Join(directory, file.Name())
			doc, chunks, err := ingestFile(ingestService, cfg, filePath)
			if err != nil {
				log.Printf("Failed to ingest %s: %v", filePath, err)
				continue
			}
			fmt.Printf("Ingested %s: document %s, %d pages, %d chunks\n",
				doc.Filename, doc.ID, doc.PageCount, chunks)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchIngestCmd)

	batchIngestCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
	batchIngestCmd.Flags().StringP("directory", "D", "", "Directory of PDFs to ingest")
	batchIngestCmd.Flags().BoolP("reinit", "r", false, "Reinitialize the vector index first")
}
