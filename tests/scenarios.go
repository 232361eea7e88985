package tests

import "github.com/grovetools/tend/pkg/harness"

// AllScenarios returns all end-to-end scenarios for altsync
func AllScenarios() []*harness.Scenario {
	return []*harness.Scenario{
		SyncScenario(),
		SyncDryRunScenario(),
	}
}
