/*
Package ports defines the driven ports (interfaces) of the sopflow runtime.

These interfaces decouple the case manager and the outer surfaces (CLI, HTTP, MCP)
from concrete backends, so definitions and cases can live in memory, on disk or in Redis.

# Key Interfaces

  - DefinitionLoader: Supplies SOP definitions (e.g., from a directory of YAML files or Memory).
  - ObjectStore: Persists and loads case objects.
  - AuditLog: Append-only record of executed transitions, used by exports.
  - DistributedLocker: Provides distributed locking for handling concurrent access to one case.
*/
package ports
