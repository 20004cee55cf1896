// Package schema holds the descriptor table that drives record mapping.
//
// Every syncable local type is described by an ObjectSchema: an ordered list
// of typed properties plus per-type sync options (record type, database
// scope, zone). Descriptors are plain data; they can be built in Go, compiled
// from CUE, or loaded from YAML.
//
// A Registry validates descriptors and derives the constants the mapping
// engine needs (record type, zone, primary key) once, at registration time.
// Initialization is explicit:
//
//	reg := schema.NewRegistry(schema.WithOwner("_abc"))
//	for _, s := range schemas {
//	    if _, err := reg.Register(s); err != nil {
//	        return err // *ConfigError
//	    }
//	}
//	if err := reg.Freeze(); err != nil {
//	    return err
//	}
//
// Lookups are only valid after Freeze, which also checks that every
// reference target exists. Configuration problems surface as *ConfigError
// values instead of aborting the process.
package schema
