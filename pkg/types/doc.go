/*
Package types defines μNet's domain model: the network devices, links,
and locations that make up the authoritative inventory.

# Core Types

  - Node: a managed network device (router, switch, firewall, ...)
  - Link: a connection between two node interfaces, or a single-ended
    internet circuit
  - Location: a node in a physical/logical hierarchy, addressed by a
    materialized path

# Builder Pattern

Each entity has a builder (NodeBuilder, LinkBuilder, LocationBuilder)
that accumulates optional fields and validates all invariants in
Build(). Storage backends also call Validate on every create and
update.

# Custom Data

Every entity carries a free-form CustomData field (any JSON-shaped Go
value: map[string]any, slices, scalars, or nil). GetCustomData and
SetCustomData resolve dot-separated paths into it, creating
intermediate objects on write and reporting absence rather than
panicking on read.
*/
package types
