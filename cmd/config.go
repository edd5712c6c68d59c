package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/QuartzBytes/sheetquery-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify sheetquery configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("api_key: %s\n", mask(c.APIKey))
		fmt.Printf("base_url: %s\n", c.BaseURL)
		fmt.Printf("model: %s\n", c.Model)
		fmt.Printf("max_tokens: %d\n", c.MaxTokens)
		fmt.Printf("temperature: %g\n", c.Temperature)
		fmt.Printf("http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", c.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms: %d\n", c.RetryMaxDelayMs)
		fmt.Printf("batch_size: %d\n", c.BatchSize)
		fmt.Printf("max_iterations: %d\n", c.MaxIterations)
		fmt.Printf("batch_workers: %d\n", c.BatchWorkers)
		fmt.Printf("audit_log_dir: %s\n", c.AuditLogDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value and save it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "api_key":
			c.APIKey = value
		case "base_url":
			c.BaseURL = value
		case "model":
			c.Model = value
		case "audit_log_dir":
			c.AuditLogDir = value
		case "temperature":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			c.Temperature = f
		case "max_tokens", "http_timeout_sec", "retry_max_attempts",
			"retry_base_delay_ms", "retry_max_delay_ms",
			"batch_size", "max_iterations", "batch_workers":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			switch key {
			case "max_tokens":
				c.MaxTokens = n
			case "http_timeout_sec":
				c.HTTPTimeoutSec = n
			case "retry_max_attempts":
				c.RetryMaxAttempts = n
			case "retry_base_delay_ms":
				c.RetryBaseDelayMs = n
			case "retry_max_delay_ms":
				c.RetryMaxDelayMs = n
			case "batch_size":
				c.BatchSize = n
			case "max_iterations":
				c.MaxIterations = n
			case "batch_workers":
				c.BatchWorkers = n
			}
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Printf("set %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
