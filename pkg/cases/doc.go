/*
Package cases orchestrates the lifecycle of case objects.

It ties the stateless runtime to storage: definitions come from a DefinitionLoader,
objects live in an ObjectStore and every applied transition is appended to an
optional AuditLog. Transitions on the same case are serialized with reference-counted
in-process locks, plus a DistributedLocker when several replicas share a backend.
*/
package cases
