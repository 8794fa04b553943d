//go:build tools

package tools

// Tool dependencies are pinned here so go.mod tracks their versions.
// Regenerate mocks with: go run github.com/vektra/mockery/v2
import (
	_ "github.com/vektra/mockery/v2"
)
