/*
Package domain contains the core domain models of the sopflow runtime.

It defines the graph of an SOP (Definition, Node, Edge), the case instances that
travel through it (Object), the records they leave behind (AuditEntry,
NotificationEvent) and the typed errors the runtime reports. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Definition: The directed graph of statuses (Node) and actions (Edge) of one SOP.
  - Object: A case positioned on one status, with its visited path and audit trail.
  - AuditEntry: An immutable record of one executed transition.
  - NotificationSpec / NotificationEvent: Configuration for, and a fired instance of, a simulated message.
*/
package domain
