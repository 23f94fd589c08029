// Package log wraps zap so every component logs with the same encoder and level settings.
package log
