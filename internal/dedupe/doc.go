// Package dedupe tracks recently seen update ids so bot frontends forward
// each inbound message to the gateway at most once.
package dedupe
