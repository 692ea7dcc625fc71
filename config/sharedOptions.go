package config

import "go.uber.org/zap"

// Configures how many goroutines check the transitions of a proof

// Default value is one per CPU
type WorkersOption struct{ N int }

func (wo WorkersOption) CheckOpt() {}

func (wo WorkersOption) VerifyOpt() {}

// Configures the logger receiving progress and warnings

// Default value is a no-op logger
type LoggerOption struct{ Logger *zap.Logger }

func (lo LoggerOption) CheckOpt() {}

func (lo LoggerOption) VerifyOpt() {}
