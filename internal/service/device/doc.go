// Package device polls MicroGoose climate monitors.
//
// Client fetches http://<host>/data.xml and Parse turns the document into
// devices and alarm rules. Every failure is reported as a *PollError whose
// Kind tells network, HTTP status and parse problems apart.
package device
