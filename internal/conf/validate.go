// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strings"
)

// ValidateSettings checks the loaded settings for obvious misconfiguration.
// It returns an error describing every problem found, not just the first.
func ValidateSettings(settings *Settings) error {
	var problems []string

	if err := validateEnsemble(&settings.Ensemble); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateWebServer(&settings.WebServer); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateOutput(settings); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateEnsemble(e *EnsembleConfig) error {
	seen := make(map[string]bool, len(e.Classifiers))
	for i := range e.Classifiers {
		c := &e.Classifiers[i]
		if c.Name == "" {
			return fmt.Errorf("ensemble classifier %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate classifier name %q", c.Name)
		}
		seen[c.Name] = true
		if c.ModelPath == "" {
			return fmt.Errorf("classifier %q has no model path", c.Name)
		}
		if c.LabelPath == "" {
			return fmt.Errorf("classifier %q has no label path", c.Name)
		}
	}
	if e.MinConfidence > 100 {
		return fmt.Errorf("ensemble minconfidence must be at most 100, got %v", e.MinConfidence)
	}
	if e.Threads < 0 {
		return fmt.Errorf("ensemble threads must not be negative, got %d", e.Threads)
	}
	return nil
}

func validateWebServer(w *WebServerSettings) error {
	if !w.Enabled {
		return nil
	}
	if w.Port == "" {
		return fmt.Errorf("webserver port must be set when webserver is enabled")
	}
	if w.MaxUploadSize <= 0 {
		return fmt.Errorf("webserver maxuploadsize must be positive, got %d", w.MaxUploadSize)
	}
	return nil
}

func validateOutput(settings *Settings) error {
	sqlite := settings.Output.SQLite.Enabled
	mysql := settings.Output.MySQL.Enabled
	if sqlite && mysql {
		return fmt.Errorf("only one output database may be enabled at a time")
	}
	if sqlite && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("sqlite output enabled but no path configured")
	}
	if mysql {
		m := &settings.Output.MySQL
		if m.Host == "" || m.Database == "" || m.Username == "" {
			return fmt.Errorf("mysql output enabled but host, database or username missing")
		}
	}
	return nil
}
