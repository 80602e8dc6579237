// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package permission

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/courier-tracker/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// locationObject is the casbin object for every positioning scope.
const locationObject = "location"

// PolicyPrompter answers permission prompts from a casbin policy, standing in
// for the operating system dialog on a headless device.
type PolicyPrompter struct {
	enforcer *casbin.SyncedEnforcer
	subject  string
	persist  bool
}

// NewPolicyPrompter loads the policy at cfg.PolicyPath, or the embedded
// policy when the path is empty or missing.
func NewPolicyPrompter(cfg *config.PermissionsConfig) (*PolicyPrompter, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	persist := false
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
		persist = true
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	subject := cfg.DeviceSubject
	if subject == "" {
		subject = "device"
	}
	return &PolicyPrompter{enforcer: enforcer, subject: subject, persist: persist}, nil
}

func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) < 4 {
			continue
		}
		if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// Request reports whether the policy grants scope to the device.
func (p *PolicyPrompter) Request(_ context.Context, scope Scope) (bool, error) {
	allowed, err := p.enforcer.Enforce(p.subject, locationObject, string(scope))
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// Grant allows scope. File-backed policies are saved.
func (p *PolicyPrompter) Grant(scope Scope) error {
	if _, err := p.enforcer.AddPolicy(p.subject, locationObject, string(scope)); err != nil {
		return fmt.Errorf("failed to grant %s: %w", scope, err)
	}
	return p.save()
}

// Revoke withdraws scope. A registration that is already running is not
// affected until the next start.
func (p *PolicyPrompter) Revoke(scope Scope) error {
	if _, err := p.enforcer.RemovePolicy(p.subject, locationObject, string(scope)); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", scope, err)
	}
	return p.save()
}

func (p *PolicyPrompter) save() error {
	if !p.persist {
		return nil
	}
	if err := p.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
