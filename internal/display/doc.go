// Package display provides a headless presentation surface and a
// line-oriented keyboard for running sessions without a graphics stack.
//
// Console paces Flip with a frame ticker at the configured refresh rate,
// standing in for a vsync-gated swap, and renders the current frame as a
// single status line. Keyboard turns stdin lines into key identifiers.
package display
