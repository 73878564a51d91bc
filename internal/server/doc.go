// Package server implements the HTTP and WebSocket transport of the direct
// chat service.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers. The chat engine
// itself lives in the chat package; this package only turns connections,
// frames and page requests into engine calls.
package server
