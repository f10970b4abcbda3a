package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grump/agentguard/internal/config"
)

var (
	initPath  string
	initForce bool
)

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "", "Config file location (default ~/.agentguard/config.yaml)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the agentguard configuration",
	Long: `Writes a commented default config file.

Existing files are left untouched unless --force is given.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = config.DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	content, err := config.DefaultYAML()
	if err != nil {
		return fmt.Errorf("generate default config: %w", err)
	}

	if initForce {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	wrote, err := writeIfMissing(path, content)
	if err != nil {
		return err
	}
	if wrote {
		fmt.Printf("created %s\n", path)
	} else {
		fmt.Printf("exists, skipped %s (use --force to overwrite)\n", path)
	}
	return nil
}

// writeIfMissing writes content to path unless the file already exists.
func writeIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
