package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/setup"
)

var (
	checkConfig  string
	checkSubject string
	checkCost    int
	checkFormat  string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkConfig, "config", "c", "", "Path to config YAML")
	checkCmd.Flags().StringVarP(&checkSubject, "subject", "s", "anonymous", "Subject the content is attributed to")
	checkCmd.Flags().IntVar(&checkCost, "cost", 0, "Estimated cost of the request")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check [content]",
	Short: "Evaluate content through the safety checks once",
	Long: "Runs one evaluation against an in-process pipeline and prints the\n" +
		"verdict. Reads content from stdin when the argument is omitted or '-'.\n\n" +
		"Exit code 0 when the content passes, 1 when it is rejected.\n" +
		"Use in CI or shell pipelines to gate content before it reaches a model.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	content, err := checkInput(args)
	if err != nil {
		return err
	}

	cfg, hash, err := config.LoadWithHash(checkConfig)
	if err != nil {
		return err
	}

	deps, err := setup.Build(cfg, hash, setup.NewLogger(config.LogConfig{Level: "error", Format: "console"}))
	if err != nil {
		return err
	}
	defer deps.Close()

	v := deps.Pipeline.Evaluate(checkSubject, content, checkCost)

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		if v.Passed {
			fmt.Printf("PASS  subject=%s risk=%s\n", v.SubjectID, v.RiskLevel)
		} else {
			fmt.Printf("REJECT  subject=%s category=%s\n  %s\n", v.SubjectID, v.FailureCategory, v.FailureReason)
		}
		for _, w := range v.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if !v.Passed {
		os.Exit(1)
	}
	return nil
}

func checkInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
