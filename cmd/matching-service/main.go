// matching-service
//
// Talent/offer matching and the job-application lifecycle.
// Exposes a gRPC API used by the Gateway to implement:
//   - rankOffers / rankApplicants / statistics — skill-based match views
//   - apply / accept / reject / getApplication — application state machine
//
// On ACCEPTED: books the interview slot after an overlap check.
// Publishes EVENT_APPLICATION_* and EVENT_INTERVIEW_UPCOMING to Redis.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app     = "matching-service"
	version = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   app,
	Short: "Skill matching and application lifecycle service",
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	if err := viper.BindPFlag("LOG_DEBUG", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := viper.BindPFlag("LOG_JSON", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd, remindCmd, migrateCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(app, version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
