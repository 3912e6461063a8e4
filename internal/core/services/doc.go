// Package services implements the driving ports: ingestion, search,
// context assembly, document management, settings and folder sync.
//
// Services talk to infrastructure only through driven ports, so every
// backend can be swapped for an in-memory one in tests.
package services
