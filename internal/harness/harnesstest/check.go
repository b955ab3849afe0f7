// Package harnesstest runs harness tests under go test.
package harnesstest

import (
	"context"
	"testing"

	"github.com/gourl/asyncharness/internal/harness"
)

// Check runs each test on r as a Go subtest and fails the subtest unless
// the harness reports Pass.
func Check(t *testing.T, r *harness.Runner, tests ...harness.Test) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			report := r.Run(context.Background(), tc)
			for _, res := range report.Results {
				if res.Status != harness.Pass {
					t.Errorf("%s: %s: %v", res.Name, res.Status, res.Err)
				}
			}
		})
	}
}
