package doctor

import (
	"context"
	"fmt"

	appconfig "github.com/doeshing/dexter/internal/application/config"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// Status grades one check.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Check is a single diagnostic line.
type Check struct {
	Name    string
	Status  Status
	Details string
}

// Report collects the checks of one run.
type Report struct {
	Checks []Check
}

// Healthy reports whether no check failed. Warnings do not count.
func (r Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider   ports.ConfigProvider
	Safety           ports.SafetyChecker
	ContextCollector ports.ContextCollector
	Plugins          []ports.Plugin
}

// Run executes checks and returns a report. A config that cannot be loaded
// stops the run and is returned as the error.
func (s *Service) Run(ctx context.Context) (Report, error) {
	var checks []Check

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return Report{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("%d provider(s) declared", len(cfg.Providers))))
	}

	checks = append(checks, providerCheck(cfg))
	checks = append(checks, s.safetyCheck())

	if s.ContextCollector != nil {
		if snapshot, err := s.ContextCollector.Collect(ctx); err == nil {
			details := fmt.Sprintf("%d file(s) in %s", len(snapshot.Files), snapshot.WorkingDir)
			if snapshot.Truncated {
				details += " (truncated)"
			}
			checks = append(checks, ok("Context collector", details))
		} else {
			checks = append(checks, warn("Context collector", err.Error()))
		}
	}

	for _, p := range s.Plugins {
		checks = append(checks, toolCheck(ctx, p))
	}

	return Report{Checks: checks}, nil
}

func providerCheck(cfg domain.Config) Check {
	warnings := appconfig.Warnings(cfg)
	if len(warnings) > 0 {
		return warn("Providers", warnings[0])
	}
	return ok("Providers", fmt.Sprintf("%d configured", len(cfg.ConfiguredProviders())))
}

// safetyCheck confirms the gate passes a harmless command and rejects a destructive one.
func (s *Service) safetyCheck() Check {
	if s.Safety == nil {
		return warn("Safety gate", "safety gate not initialized")
	}
	if err := s.Safety.Check("ls -la"); err != nil {
		return fail("Safety gate", fmt.Sprintf("rejects a harmless command: %v", err))
	}
	if err := s.Safety.Check("rm -rf /"); err == nil {
		return fail("Safety gate", "accepts rm -rf /")
	}
	return ok("Safety gate", "rules loaded")
}

func toolCheck(ctx context.Context, p ports.Plugin) Check {
	name := "Tool " + p.Name()
	inst, isInstallable := p.(ports.Installable)
	if !isInstallable {
		return ok(name, "no external binary")
	}
	if inst.IsInstalled(ctx) {
		return ok(name, "installed")
	}
	return warn(name, "missing: "+inst.InstallHint())
}

func ok(name, details string) Check {
	return Check{Name: name, Status: StatusOK, Details: details}
}

func warn(name, details string) Check {
	return Check{Name: name, Status: StatusWarn, Details: details}
}

func fail(name, details string) Check {
	return Check{Name: name, Status: StatusError, Details: details}
}
