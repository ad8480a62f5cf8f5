//go:build tools

package tools

// Mocks are generated with an installed mockery v3 binary, configured in
// .mockery.yaml. Run: mockery (from the module root).
