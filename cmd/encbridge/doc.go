// Command encbridge runs encoders whose output callbacks are routed through
// the handle bridge.
//
// Usage:
//
//	encbridge run --wasm encoder.wasm --input audio.pcm --output audio.ogg
//	encbridge run --wasm encoder.wasm -i
//	encbridge config show
//	encbridge encode --input audio.pcm --output audio.ogg   (built with -tags opusenc)
//
// Settings come from --config (TOML, YAML or JSON), ENCBRIDGE_* environment
// variables and flags, in increasing precedence.
package main
