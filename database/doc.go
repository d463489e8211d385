// Package database owns the gateway's connection pool: lazy connection
// management on top of Bun, parameterized statement execution, per-dialect
// table introspection, health checks, query hooks and SQL error
// classification.
package database
