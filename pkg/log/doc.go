/*
Package log wraps zerolog for μNet's structured logging: a global
Logger initialized once at process start, plus child-logger helpers
for the identifiers this domain cycles through (node, rule, task).

# Initialization

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

JSONOutput selects machine-parsed logs for production; omitting it
gives a human-readable console writer, useful when running unetd
interactively.

# Component and context loggers

	pollerLog := log.WithComponent("poller")
	pollerLog.Info().Msg("started")

	log.WithNodeID(nodeID.String()).Warn().Msg("node unreachable")
	log.WithRuleID(rule.ID).Error().Err(err).Msg("rule evaluation failed")
	log.WithTaskID(task.ID.String()).Debug().Msg("poll scheduled")

Each helper returns a zerolog.Logger carrying one extra field on top
of the global Logger's configured level and output; callers chain
further fields (.Str, .Int, .Err) before calling a level method.

# Package-level helpers

Info, Debug, Warn, Error, Errorf, and Fatal write directly to the
global Logger for call sites that don't need extra context fields.
Errorf takes a message and an error, not a printf-style format string.
*/
package log
