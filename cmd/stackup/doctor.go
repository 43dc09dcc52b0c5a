package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackup-cli/stackup/internal/provision"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Probe the stack's backing services and report their health",
	Long: `Doctor probes Postgres, Redis, and the application's HTTP health
endpoint concurrently and prints a JSON report. It exits non-zero when any
dependency is unhealthy.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	probes := app.provisioner.DeepHealth(ctx)

	status := "healthy"
	for _, p := range probes {
		if !p.OK {
			status = "unhealthy"
			break
		}
	}

	report := struct {
		Status       string                           `json:"status"`
		Dependencies map[string]provision.ProbeResult `json:"dependencies"`
	}{Status: status, Dependencies: probes}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", status)
	}

	if status != "healthy" {
		slog.Warn("one or more dependencies are unhealthy")
		return fmt.Errorf("unhealthy dependencies")
	}
	return nil
}
