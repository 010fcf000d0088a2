package config_test

import (
	"fmt"

	"github.com/worktimer/worktimer/internal/config"
	"github.com/worktimer/worktimer/internal/matcher"
)

func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Matcher:", cfg.Tracker.Matcher)
	fmt.Println("Session Cap:", cfg.Tracker.SessionCap)
	// Output:
	// Matcher: executable
	// Session Cap: 0
}

func ExampleConfig_EffectiveSessionCap() {
	cfg := config.Default()
	fmt.Println(cfg.EffectiveSessionCap(matcher.Keyword{}))
	fmt.Println(cfg.EffectiveSessionCap(matcher.Executable{}))

	cfg.Tracker.SessionCap = 50
	fmt.Println(cfg.EffectiveSessionCap(matcher.Executable{}))
	// Output:
	// 200
	// 500
	// 50
}

func ExampleConfig_SetWebPort() {
	cfg := config.Default()

	if err := cfg.SetWebPort(8080); err == nil {
		fmt.Println("Web port set to:", cfg.Web.Port)
	}

	if err := cfg.SetWebPort(70000); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Web port set to: 8080
	// Error: port must be between 1 and 65535, got 70000
}

func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Configuration is valid
}
