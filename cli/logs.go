package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/binhbb2204/bookhub/cli/config"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:         "logs",
	Short:       "Manage logs",
	Long:        `View, search, and manage BookHub CLI logs.`,
	Annotations: map[string]string{annotationStandalone: "true"},
}

var logsErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show error logs",
	Long:  `Display error and warning events from the log files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outln("Error Logs:")
		outln("-----------")
		found, err := scanLogs(func(file string, _ int, line string) bool {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "level=error") || strings.Contains(lower, `"level":"error"`) ||
				strings.Contains(lower, "level=warn") || strings.Contains(lower, `"level":"warn"`) {
				outf("[%s] %s\n", file, line)
				return true
			}
			return false
		})
		if err != nil {
			return err
		}
		if !found {
			outln("No errors found in logs.")
		}
		return nil
	},
}

var logsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search logs",
	Long:  `Search for a specific string in the log files.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.ToLower(args[0])
		outf("Searching for \"%s\" in logs...\n", query)
		outln("-----------------------------------")
		found, err := scanLogs(func(file string, n int, line string) bool {
			if strings.Contains(strings.ToLower(line), query) {
				outf("[%s:%d] %s\n", file, n, line)
				return true
			}
			return false
		})
		if err != nil {
			return err
		}
		if !found {
			outln("No matches found.")
		}
		return nil
	},
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old logs",
	Long:  `Delete all log files in the log directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, files, err := logFiles()
		if err != nil {
			return err
		}
		count := 0
		for _, name := range files {
			if err := os.Remove(filepath.Join(dir, name)); err == nil {
				count++
			}
		}
		printSuccess(fmt.Sprintf("Deleted %d log files", count))
		return nil
	},
}

var logsRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate logs",
	Long:  `Archive current logs and start fresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, files, err := logFiles()
		if err != nil {
			return err
		}
		timestamp := time.Now().Format("20060102-150405")
		count := 0
		for _, name := range files {
			if strings.Contains(name, ".archive.") {
				continue
			}
			archived := fmt.Sprintf("%s.archive.%s.log", strings.TrimSuffix(name, ".log"), timestamp)
			if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, archived)); err == nil {
				count++
			}
		}
		printSuccess(fmt.Sprintf("Rotated %d log files", count))
		return nil
	},
}

func init() {
	logsCmd.AddCommand(logsErrorsCmd)
	logsCmd.AddCommand(logsSearchCmd)
	logsCmd.AddCommand(logsCleanCmd)
	logsCmd.AddCommand(logsRotateCmd)
}

// logFiles lists the *.log files in the configured log directory.
func logFiles() (string, []string, error) {
	cfg, err := config.Load()
	if err != nil {
		printError("Configuration not initialized")
		outln("Run: bookhub init")
		return "", nil, err
	}
	dir := cfg.Logging.Path
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	return dir, names, nil
}

// scanLogs calls match for every line of every log file and reports whether
// any call returned true.
func scanLogs(match func(file string, lineNum int, line string) bool) (bool, error) {
	dir, files, err := logFiles()
	if err != nil {
		return false, err
	}
	found := false
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for n := 1; scanner.Scan(); n++ {
			if match(name, n, scanner.Text()) {
				found = true
			}
		}
		f.Close()
	}
	return found, nil
}
