/*
Package config resolves the settings of an sbmod invocation.

	+----------+   +----------+   +-----------+   +---------+
	| defaults | < | project  | < | BUILDER_* | < |  flags  |
	|          |   |   file   |   |   env     |   |         |
	+----------+   +----------+   +-----------+   +---------+

🎯 Purpose:
- Loads an optional project file (sbmod.yaml, .yml, .hcl, .toml or .json)
- Overlays BUILDER_ prefixed environment variables
- Overlays explicitly set command line flags
- Validates the result and turns it into a pipeline context and stager

Every failure is a *ConfigurationError, raised before any stage runs.
*/
package config
