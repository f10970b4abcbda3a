package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statsAddr string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsAddr, "addr", "http://localhost:8700", "Base URL of a running agentguard server")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline counters from a running server",
	Long:  "Fetches /api/v1/stats from a running agentguard server and\npretty-prints the pipeline and component counters.",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(statsAddr + "/api/v1/stats")
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	var stats map[string]any
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("parse stats: %w", err)
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	return nil
}
