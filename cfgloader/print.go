package cfgloader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rise-and-shine/repokit/mask"
)

// printConfig logs the loaded config with sensitive fields redacted.
// Redaction is driven by `mask:"true"` struct tags.
func printConfig(env string, config any) {
	om := mask.StructToOrdMap(config)
	if om == nil {
		return
	}

	var b strings.Builder
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&b, "  %s: %v\n", pair.Key, pair.Value)
	}
	slog.Info(fmt.Sprintf("[cfgloader]: loaded %s config\n%s", env, b.String()))
}
