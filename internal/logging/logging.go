package logging

import (
	"go.uber.org/zap"
)

// NewLogger returns a sugared logger. Development mode switches to the
// human-readable console encoder with debug level enabled.
func NewLogger(development bool) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
