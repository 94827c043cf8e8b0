// Package example ships a ready-made host module used by the demos and as a
// template for writing new ones. Its environment keeps a call counter and the
// last message a guest logged, so every binding shape has a working reference:
// pure arithmetic, environment mutation, guest memory access and deliberate
// traps.
package example
