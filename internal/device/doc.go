// Package device is the handle applications use to control one controller.
//
// Connect opens a transport, learns the protocol generation and model from
// the first state query and picks the matching capability descriptor.
// Every operation after that is a single request: state changes are encoded
// by package state, timers by package timer and patterns by package pattern.
//
// # Retries
//
// A failed request is retried whole: the socket is re-dialled and the frame
// resent. Only transient failures are retried (checksum mismatch, short
// frames, I/O errors and timeouts). Precondition errors such as InvalidRange
// and UnsupportedChannel are returned at once. When the attempt budget runs
// out the error is of kind Unreachable.
//
// # Batches
//
// Batch runs one task per device with bounded concurrency. An unreachable
// device never affects its siblings; the caller receives a result per
// address.
//
// # Usage Example
//
//	c, err := device.Connect(ctx, "192.168.1.20:5577")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.SetColor(ctx, colors.RGB{R: 255}); err != nil {
//	    return err
//	}
//	st, err := c.Query(ctx)
package device
