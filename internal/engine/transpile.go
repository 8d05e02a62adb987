package engine

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// TranspileFunc rewrites snippet code before execution. Supplying one is
// mutually exclusive with TypeScript compilation, which subsumes it.
type TranspileFunc func(code string) (string, error)

func transpileTypeScript(code, tsconfigRaw string) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:      api.LoaderTS,
		Target:      api.ESNext,
		TsconfigRaw: tsconfigRaw,
	})

	if len(result.Errors) > 0 {
		err := result.Errors[0]

		if err.Location != nil {
			return "", fmt.Errorf("typescript: %s (line %d)", err.Text, err.Location.Line)
		}

		return "", fmt.Errorf("typescript: %s", err.Text)
	}

	return string(result.Code), nil
}
