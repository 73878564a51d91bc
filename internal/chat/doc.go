// Package chat implements the presence and message-routing engine of the
// direct messaging service.
//
// The engine is made of a Registry that tracks which connection handle is
// live for each user, a Store holding the ordered history of every
// two-party room, a Publisher broadcasting presence transitions and a Router
// that records a message and pushes it to the live connections of both
// participants. Service ties them together and is what the transport and
// page layers talk to.
//
// Every component is safe for concurrent use. Deliveries never happen while
// a registry or store lock is held.
package chat
