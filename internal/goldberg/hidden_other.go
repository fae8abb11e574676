//go:build !windows

package goldberg

// Dot files are already hidden outside Windows.
func hideFile(string) error { return nil }
