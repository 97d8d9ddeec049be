/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tieubaoca/contract-intel-be/config"
	"github.com/tieubaoca/contract-intel-be/database"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
// Running it bare resets the vector schema: the chunk class is dropped and
// recreated empty.
var rootCmd = &cobra.Command{
	Use:   "contract-intel-be",
	Short: "Contract document intelligence backend",
	Long: `Backend service for contract analysis: PDF ingestion with chunking and
vector indexing, structured field extraction with evidence provenance,
retrieval-augmented question answering, and rule-based risk auditing.

Run without a subcommand to reset the vector index schema.`,
	Run: func(cmd *cobra.Command, args []string) {
		databaseURL, _ := cmd.Flags().GetString("database-url")

		index, err := database.NewWeaviateIndex(config.WeaviateStoreConfig{
			Host:   databaseURL,
			APIKey: os.Getenv("WEAVIATE_APIKEY"),
		}, 384)
		if err != nil {
			fmt.Println("Failed to create Weaviate client: ", err)
			os.Exit(1)
		}
		if err := index.ReInit(); err != nil {
			fmt.Println("Failed to reset chunk schema: ", err)
			os.Exit(1)
		}
		fmt.Println("Chunk schema reset")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.contract-intel-be.yaml)")

	rootCmd.Flags().StringP("database-url", "d", "http://localhost:8081", "URL for the Weaviate database")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".contract-intel-be" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".contract-intel-be")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
