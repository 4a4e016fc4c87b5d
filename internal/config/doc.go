// Package config defines the format-agnostic model of an exploration plan:
// the operations under test, the data scales, the configuration-node DAG
// declaration, the pruning thresholds, and the execution settings.
//
// The model is produced once at startup by a config.Loader and is immutable
// from then on. No package below the loader ever sees plan syntax.
package config
