// Package transport carries LED controller frames over TCP.
//
// A Conn owns one TCP connection to a controller on port 5577. Requests are
// serialized: a frame is written and, when a reply is expected, exactly one
// reply is read before the next request may start. Legacy replies have a
// fixed size that the caller supplies. V2 replies are read as a 10 byte
// envelope header followed by the length the header declares.
//
// Every blocking call honours both the connection timeout and the caller's
// context. Cancelling the context unblocks a pending read or write.
//
// I/O failures drop the underlying socket so the next request dials again.
// Callers that retry should call Reconnect between attempts.
package transport
