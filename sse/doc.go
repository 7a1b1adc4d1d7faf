// Package sse fans a channel of messages out to any number of HTTP clients as a
// text/event-stream, e.g. to let operators watch authentication decisions live.
package sse
