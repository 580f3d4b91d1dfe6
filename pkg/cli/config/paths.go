package config

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Built-in pipeline layout defaults
const (
	DefaultLogsDir    = "daily-logs"
	DefaultReportsDir = "ci/daily-reports"
	DefaultWeeklyDir  = "weekly-review"
	DefaultGoalsFile  = "checks/goals/goals.md"
	DefaultPromptFile = "ci/prompts/weekly-synthesis.md"
)

// Paths holds the filesystem layout of the pipeline. Values resolve in
// order: explicit flag, TOML config file, built-in default.
type Paths struct {
	configFile string

	logsDir    string
	reportsDir string
	weeklyDir  string
	goalsFile  string
	usageFile  string
	promptFile string
}

type pathsFile struct {
	Paths struct {
		LogsDir    string `toml:"logs_dir"`
		ReportsDir string `toml:"reports_dir"`
		WeeklyDir  string `toml:"weekly_dir"`
		GoalsFile  string `toml:"goals_file"`
		UsageFile  string `toml:"usage_file"`
		PromptFile string `toml:"prompt_file"`
	} `toml:"paths"`
}

// Flags returns CLI flags for path configuration
func (p *Paths) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "TOML config file with a [paths] section",
			Sources:     cli.EnvVars("TSUZURI_CONFIG"),
			Destination: &p.configFile,
		},
		&cli.StringFlag{
			Name:        "logs-dir",
			Usage:       "Directory containing daily log files",
			Sources:     cli.EnvVars("TSUZURI_LOGS_DIR"),
			Destination: &p.logsDir,
		},
		&cli.StringFlag{
			Name:        "reports-dir",
			Usage:       "Directory for daily report artifacts",
			Sources:     cli.EnvVars("TSUZURI_REPORTS_DIR"),
			Destination: &p.reportsDir,
		},
		&cli.StringFlag{
			Name:        "weekly-dir",
			Usage:       "Directory for weekly review documents",
			Sources:     cli.EnvVars("TSUZURI_WEEKLY_DIR"),
			Destination: &p.weeklyDir,
		},
		&cli.StringFlag{
			Name:        "goals-file",
			Usage:       "Goal catalog document",
			Sources:     cli.EnvVars("TSUZURI_GOALS_FILE"),
			Destination: &p.goalsFile,
		},
		&cli.StringFlag{
			Name:        "usage-file",
			Usage:       "Token usage ledger CSV (defaults to <reports-dir>/usage.csv)",
			Sources:     cli.EnvVars("TSUZURI_USAGE_FILE"),
			Destination: &p.usageFile,
		},
		&cli.StringFlag{
			Name:        "prompt-path",
			Usage:       "Weekly synthesis prompt template",
			Sources:     cli.EnvVars("TSUZURI_PROMPT_PATH"),
			Destination: &p.promptFile,
		},
	}
}

// Configure resolves the effective layout
func (p *Paths) Configure() error {
	var file pathsFile
	if p.configFile != "" {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(p.configFile)
		if err != nil {
			return goerr.Wrap(err, "failed to read config file", goerr.V("path", p.configFile))
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", p.configFile))
		}
	}

	p.logsDir = resolve(p.logsDir, file.Paths.LogsDir, DefaultLogsDir)
	p.reportsDir = resolve(p.reportsDir, file.Paths.ReportsDir, DefaultReportsDir)
	p.weeklyDir = resolve(p.weeklyDir, file.Paths.WeeklyDir, DefaultWeeklyDir)
	p.goalsFile = resolve(p.goalsFile, file.Paths.GoalsFile, DefaultGoalsFile)
	p.promptFile = resolve(p.promptFile, file.Paths.PromptFile, DefaultPromptFile)
	p.usageFile = resolve(p.usageFile, file.Paths.UsageFile, filepath.Join(p.reportsDir, "usage.csv"))

	return nil
}

// LogsDir returns the daily logs directory
func (p *Paths) LogsDir() string { return p.logsDir }

// ReportsDir returns the daily reports directory
func (p *Paths) ReportsDir() string { return p.reportsDir }

// WeeklyDir returns the weekly review directory
func (p *Paths) WeeklyDir() string { return p.weeklyDir }

// GoalsFile returns the goal catalog document path
func (p *Paths) GoalsFile() string { return p.goalsFile }

// UsageFile returns the usage ledger path
func (p *Paths) UsageFile() string { return p.usageFile }

// PromptFile returns the weekly synthesis prompt path
func (p *Paths) PromptFile() string { return p.promptFile }

func resolve(flag, file, fallback string) string {
	if flag != "" {
		return flag
	}
	if file != "" {
		return file
	}
	return fallback
}
