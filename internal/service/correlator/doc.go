// Package correlator joins alarm rules with the sensor readings they watch.
package correlator
