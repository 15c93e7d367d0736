//go:build windows

package cmd

import "context"

// onResume is a no-op on Windows, which has no SIGCONT
func onResume(ctx context.Context, fn func()) {}
