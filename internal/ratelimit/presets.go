package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// Policy type tags. Each tag namespaces its own counters in the store.
const (
	TypeLogin = "login"
	TypeLead  = "lead"
	TypeAPI   = "api"
	TypeSetup = "setup"
)

// EnvProduction is the environment tag that selects the strict default
// tables. Any other tag gets the development defaults.
const EnvProduction = "production"

// Absolute fallbacks for the api preset, also used to repair invalid
// programmatic policies in New.
const (
	fallbackAPIMax    = 100
	fallbackAPIWindow = time.Minute
)

// presetDefaults is the built-in table consulted when no explicit
// environment override is present.
type presetDefaults struct {
	envMax    string // environment variable carrying the max override
	envWindow string // environment variable carrying the window override (ms)

	prodMax    int64
	prodWindow time.Duration
	devMax     int64
	devWindow  time.Duration

	message string
}

var presets = map[string]presetDefaults{
	TypeLogin: {
		envMax:     "RATE_LIMIT_LOGIN_MAX",
		envWindow:  "RATE_LIMIT_LOGIN_WINDOW_MS",
		prodMax:    5,
		prodWindow: 15 * time.Minute,
		devMax:     100,
		devWindow:  15 * time.Minute,
		message:    "Too many login attempts. Please try again later.",
	},
	TypeLead: {
		envMax:     "RATE_LIMIT_LEAD_MAX",
		envWindow:  "RATE_LIMIT_LEAD_WINDOW_MS",
		prodMax:    10,
		prodWindow: 10 * time.Minute,
		devMax:     100,
		devWindow:  10 * time.Minute,
		message:    "Too many submissions. Please try again later.",
	},
	TypeAPI: {
		envMax:     "RATE_LIMIT_API_MAX",
		envWindow:  "RATE_LIMIT_API_WINDOW_MS",
		prodMax:    fallbackAPIMax,
		prodWindow: fallbackAPIWindow,
		devMax:     1000,
		devWindow:  time.Minute,
		message:    "Too many requests. Please slow down.",
	},
	TypeSetup: {
		envMax:     "RATE_LIMIT_SETUP_MAX",
		envWindow:  "RATE_LIMIT_SETUP_WINDOW_MS",
		prodMax:    3,
		prodWindow: time.Hour,
		devMax:     20,
		devWindow:  time.Hour,
		message:    "Too many setup attempts. Please try again later.",
	},
}

// PresetPolicy builds the named preset, resolving numbers in precedence
// order: explicit environment override, then the built-in table for the
// given environment tag, then the api fallback constants. Missing or
// non-numeric environment values fall through to the next level — a bad
// override can never disable limiting or produce a zero-sized window.
func PresetPolicy(presetType, envTag string) Policy {
	defaults, ok := presets[presetType]
	if !ok {
		return Policy{
			Type:    presetType,
			Max:     fallbackAPIMax,
			Window:  fallbackAPIWindow,
			Message: presets[TypeAPI].message,
		}
	}

	maxRequests := defaults.prodMax
	window := defaults.prodWindow

	if envTag != EnvProduction {
		maxRequests = defaults.devMax
		window = defaults.devWindow
	}

	if v, ok := envInt(defaults.envMax); ok {
		maxRequests = v
	}

	if v, ok := envInt(defaults.envWindow); ok {
		window = time.Duration(v) * time.Millisecond
	}

	policy := Policy{
		Type:    presetType,
		Max:     maxRequests,
		Window:  window,
		Message: defaults.message,
	}

	if presetType == TypeLogin {
		// Only failed login attempts should burn the budget.
		policy.SkipSuccessfulRequests = true
	}

	return policy
}

// envInt reads a positive integer from the environment. Absent, empty,
// non-numeric, or non-positive values report false.
func envInt(name string) (int64, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}
