// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements a readiness-driven scheduler over
// non-blocking sockets.
//
// One Reactor owns one epoll instance and a task intake queue. Tasks are
// spawned through the reactor, perform suspending socket operations
// (Accept, Connect, Receive, Send, ReceiveFrom, SendTo) and unwind
// cooperatively when the reactor shuts down. Would-block conditions are
// never surfaced to callers: each operation attempts immediately and, if
// the kernel cannot complete it, waits for a readiness notification
// before re-attempting.
package reactor
