// Package notify renders and delivers change notifications.
package notify

// Sender is the narrow delivery contract the dispatcher depends on. The
// core never deals with transport mechanics directly.
type Sender interface {
	Send(recipient, subject, body string, isHTML bool) error
}
