// Package comfy speaks the ComfyUI HTTP API: catalog discovery, prompt
// submission, history polling, and image download. The server offers no
// completion callback, so WaitForHistory polls and consults the queue
// endpoint before declaring a generation lost.
package comfy
