package pipeline

import "context"

// Permission identifies a device capability the pipeline needs a grant for.
type Permission string

const (
	PermissionLocation Permission = "location"
	PermissionCamera   Permission = "camera"
	PermissionLibrary  Permission = "library"
)

// PermissionFunc asks the platform for a grant. A denial is an expected
// outcome (false, nil); the error is reserved for the permission service
// itself failing.
type PermissionFunc func(ctx context.Context, p Permission) (bool, error)

// GrantAll is a PermissionFunc for headless environments where no permission
// broker exists.
func GrantAll(ctx context.Context, p Permission) (bool, error) { return true, nil }
