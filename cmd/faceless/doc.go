// Command faceless is the interactive front door for the companion
// daemon: chatting, scene status, history, character and sampler swaps,
// and daemon lifecycle control over the Unix socket.
package main
