// Package terminal provides low-level terminal access for the player:
// raw mode entry/exit, size reporting, cursor visibility, and a
// mutex-guarded byte stream so renderer output never interleaves with
// teardown messages.
package terminal
