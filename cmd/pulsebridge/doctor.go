package main

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"pulsebridge/internal/config"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your PulseBridge installation",
		Long: `Verifies that PulseBridge's configuration, chat-platform credentials, and
backend endpoints are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("PulseBridge Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'pulsebridge init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Slack credentials present
			if cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "" {
				printFail("Slack credentials", "botToken and appToken are required for Socket Mode")
				failed++
			} else {
				printPass("Slack credentials", "configured")
				passed++
			}

			// 4. Service token present
			if cfg.Backends.ServiceToken == "" {
				printWarn("Service token", "not set; all backend calls will fail")
				warned++
			} else {
				printPass("Service token", "configured")
				passed++
			}

			// 5. Backend endpoints reachable
			endpoints := map[string]string{
				"Tenant backend":       cfg.Backends.TenantURL,
				"Retrieval backend":    cfg.Backends.RetrievalURL,
				"Intervention backend": cfg.Backends.InterventionURL,
				"Feedback backend":     cfg.Backends.FeedbackURL,
				"Insights ingest":      cfg.Backends.IngestURL,
			}
			for name, endpoint := range endpoints {
				if endpoint == "" {
					printWarn(name, "not configured")
					warned++
					continue
				}
				if err := checkReachable(endpoint); err != nil {
					printFail(name, err.Error())
					failed++
				} else {
					printPass(name, endpoint)
					passed++
				}
			}

			// 6. Sampling policy summary
			printPass("Sampling policy", fmt.Sprintf("rate=%.2f max=%d min=%d",
				cfg.Insights.SampleRate.Value,
				cfg.Insights.MaxTextLength.Value,
				cfg.Insights.MinTextLength.Value))
			passed++

			fmt.Printf("\n%d passed, %d failed, %d warnings\n", passed, failed, warned)
			return nil
		},
	}
}

// checkReachable dials the endpoint's host to verify basic connectivity.
func checkReachable(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host += ":443"
		default:
			host += ":80"
		}
	}
	conn, err := net.DialTimeout("tcp", host, 3*time.Second)
	if err != nil {
		return fmt.Errorf("unreachable: %v", err)
	}
	conn.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  ✓ %-22s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  ✗ %-22s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  ! %-22s %s\n", check, detail)
}
