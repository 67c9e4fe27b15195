// Package config loads the client's Configuration from a JSON or YAML file,
// validates it against a JSON schema, and applies environment-variable
// overrides on top (flags are handled in cmd/mtconnect-client). SafeConfig
// gives a thread-safe read path onto a config that the process never
// actually reloads at runtime, but which is still guarded the same way the
// rest of this codebase guards shared config state.
package config
