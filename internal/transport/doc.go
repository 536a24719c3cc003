// Package transport relays store reads and commits across a message
// channel.
//
// Two requests cross the boundary: apply (a batch, answered with its
// inverse) and get (a pointer, answered with the value). Every request
// carries a caller-generated id and the matching response echoes it, so
// responses may arrive in any order. Pointers travel in their canonical
// string form.
//
// A Server answers requests against a local Store. A Client issues them
// and correlates responses. Both speak over a Conn: an in-memory Pipe for
// goroutine boundaries or a websocket for process boundaries.
package transport
