package logger

import (
	"go.uber.org/zap"
)

// Init replaces the global zap logger. Production emits JSON, anything else
// uses the human friendly development encoder.
func Init(environment string) error {
	var (
		l   *zap.Logger
		err error
	)

	switch environment {
	case "production", "staging":
		l, err = zap.NewProduction()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(l)

	return nil
}
