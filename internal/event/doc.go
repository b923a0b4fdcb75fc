// Package event holds the detected objects of one event (tracks, showers,
// beam photons and the RF time) and the handles the comboer uses to refer to
// them.
package event
