package commands

// RefreshTarget exports refreshTarget for testing.
var RefreshTarget = refreshTarget //nolint:gochecknoglobals // test export
