// Package state turns a raw state response into a DeviceState and turns a
// requested change into the one command frame that applies it.
//
// Both directions consult exactly one models.Descriptor: it decides which
// payload bytes hold which channel, which levels command layout to use and
// whether a requested channel exists at all.
package state
