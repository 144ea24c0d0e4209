// Package opusenc encodes PCM to Ogg Opus with libopusenc, streaming the
// encoder's output through the bridge.
//
// The encoder is created with ope_encoder_create_callbacks. Its callbacks
// are the native bridge entry points and its user_data is a registry
// handle, so libopusenc never holds a Go pointer. Each page libopusenc
// emits reaches the io.Writer given to NewEncoder.
//
// The package needs cgo, libopusenc and the opusenc build tag:
//
//	go build -tags opusenc ./...
//
// Without the tag only the options and constants are compiled.
//
// # Usage
//
//	enc := opusenc.NewEncoder(out,
//	    opusenc.WithRate(44100),
//	    opusenc.WithComment("TITLE", "demo"))
//	if err := enc.Init(); err != nil {
//	    return err
//	}
//	defer enc.Close()
//
//	for frame := range frames {
//	    if err := enc.Encode(frame); err != nil {
//	        return err
//	    }
//	}
//	return enc.Drain()
package opusenc
