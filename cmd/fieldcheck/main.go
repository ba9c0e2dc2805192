// fieldcheck evaluates task files against an inventory and prints the
// resolved fields for every host as JSON.
//
// Usage:
//
//	fieldcheck eval tasks.yaml --inventory hosts.yaml --mode syntax
//	fieldcheck eval tasks.yaml --hosts web --var release=1.4.2 --mode check
//	fieldcheck eval tasks.yaml --defaults-file defaults.yaml --vars-file vars.yaml
//	fieldcheck modules
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-fields/internal/config"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/logging"
	"github.com/aescanero/dago-node-fields/internal/modules"
	"github.com/aescanero/dago-node-fields/internal/playbook"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "fieldcheck",
	Short:        "Evaluate task fields against an inventory",
	SilenceUsage: true,
}

// --- eval ---

var (
	evalInventory   string
	evalMode        string
	evalHosts       []string
	evalVars        []string
	evalDefaults    string
	evalVarsFile    string
	evalRoleVars    string
	evalEnvPrefix   string
	evalChdir       string
	evalParallelism int
	evalLogLevel    string
)

var evalCmd = &cobra.Command{
	Use:   "eval [tasks.yaml]",
	Short: "Evaluate every task in a file on the selected hosts",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalChdir != "" {
		if err := os.Chdir(evalChdir); err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}

	logger, err := logging.NewStderr(evalLogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := evalOptions{
		TasksPath:     args[0],
		InventoryPath: evalInventory,
		Mode:          evalMode,
		Hosts:         evalHosts,
		Vars:          evalVars,
		DefaultsFile:  evalDefaults,
		VarsFile:      evalVarsFile,
		RoleVarsFile:  evalRoleVars,
		EnvPrefix:     evalEnvPrefix,
		Parallelism:   evalParallelism,
		Environ:       os.Environ(),
	}
	return evaluate(cmd.Context(), afero.NewOsFs(), opts, cmd.OutOrStdout(), logger)
}

// evalOptions are the inputs of one eval run
type evalOptions struct {
	TasksPath     string
	InventoryPath string
	Mode          string
	Hosts         []string
	Vars          []string
	DefaultsFile  string
	VarsFile      string
	RoleVarsFile  string
	EnvPrefix     string
	Parallelism   int
	Environ       []string
}

// taskReport is printed for each task
type taskReport struct {
	Task    string               `json:"task"`
	Module  string               `json:"module"`
	Results []modules.HostResult `json:"results"`
}

// evaluate runs the tasks and writes one JSON report per task. It fails when
// any host fails any task.
func evaluate(ctx context.Context, fs afero.Fs, opts evalOptions, out io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	mode, err := playbook.ParseMode(opts.Mode)
	if err != nil {
		return err
	}

	extra, err := parseVars(opts.Vars)
	if err != nil {
		return err
	}

	defaults, err := loadVarsFile(fs, opts.DefaultsFile)
	if err != nil {
		return err
	}
	playVars, err := loadVarsFile(fs, opts.VarsFile)
	if err != nil {
		return err
	}
	roleVars, err := loadVarsFile(fs, opts.RoleVarsFile)
	if err != nil {
		return err
	}

	invData, err := afero.ReadFile(fs, opts.InventoryPath)
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	inv, err := inventory.LoadBytes(invData)
	if err != nil {
		return err
	}
	hosts, err := inv.Select(opts.Hosts)
	if err != nil {
		return err
	}

	taskData, err := afero.ReadFile(fs, opts.TasksPath)
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	taskList, err := modules.ParseTasks(taskData)
	if err != nil {
		return err
	}

	playCtx := playbook.NewDefaultContext(logger)
	playCtx.SetInventory(inv)
	playCtx.SetDefaults(defaults)
	playCtx.SetPlayVars(playVars)
	playCtx.SetRoleVars(roleVars)
	playCtx.SetExtraVars(extra)
	playCtx.SetEnvironment(config.FilterEnvironment(opts.Environ, opts.EnvPrefix))

	runState := playbook.NewRunState(mode, playCtx, fs)
	all, err := modules.NewPipeline(runState, logger, opts.Parallelism).EvaluateTasks(ctx, taskList, hosts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	failures := 0
	for i, results := range all {
		for _, r := range results {
			if r.Failed() {
				failures++
			}
		}
		report := taskReport{Task: taskList[i].Name, Module: taskList[i].Module, Results: results}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d host evaluation(s) failed", failures)
	}
	return nil
}

// parseVars turns repeated key=value flags into extra variables
func parseVars(pairs []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// loadVarsFile reads a YAML variables file. An empty path yields no variables.
func loadVarsFile(fs afero.Fs, path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file: %w", err)
	}
	vars, err := playbook.ParseVars(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

// --- modules ---

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the available task modules",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range modules.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fieldcheck %s (build: %s)\n", version, commit)
	},
}

func init() {
	// eval flags
	evalCmd.Flags().StringVarP(&evalInventory, "inventory", "i", "inventory.yaml", "Path to the inventory YAML")
	evalCmd.Flags().StringVar(&evalMode, "mode", "syntax", "Run mode: syntax, check, or apply")
	evalCmd.Flags().StringSliceVar(&evalHosts, "hosts", nil, "Hosts or groups to evaluate (default: all)")
	evalCmd.Flags().StringArrayVar(&evalVars, "var", nil, "Set an extra variable (key=value), repeatable")
	evalCmd.Flags().StringVar(&evalDefaults, "defaults-file", "", "YAML file of role defaults, the lowest precedence variables")
	evalCmd.Flags().StringVar(&evalVarsFile, "vars-file", "", "YAML file of play variables")
	evalCmd.Flags().StringVar(&evalRoleVars, "role-vars-file", "", "YAML file of role variables")
	evalCmd.Flags().StringVar(&evalEnvPrefix, "env-prefix", "JET_", "Only environment variables with this prefix are visible to template files")
	evalCmd.Flags().StringVarP(&evalChdir, "chdir", "C", "", "Directory holding templates/ and files/")
	evalCmd.Flags().IntVar(&evalParallelism, "parallelism", 16, "Maximum hosts evaluated at once (0: unbounded)")
	evalCmd.Flags().StringVar(&evalLogLevel, "log-level", "warn", "Log level: debug, info, warn, or error")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(versionCmd)
}
