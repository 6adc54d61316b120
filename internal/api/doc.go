// Package api handles incoming HTTP requests, request validation and
// response formatting for the study board. Handlers translate HTTP
// concerns into calls on the study and economy services and map their
// errors onto status codes without leaking internal details.
package api
