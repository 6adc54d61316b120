// Package events provides types and interfaces for publishing domain events.
//
// Services emit events after their transaction commits, without knowing
// which handlers will process them. Downstream consumers such as achievement
// unlocking register their own handlers; the server registers a logging one.
//
// The primary components are:
// - Event: a committed fact with a type-specific JSON payload
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
