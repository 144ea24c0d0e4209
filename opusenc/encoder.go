//go:build cgo && opusenc

package opusenc

/*
#cgo pkg-config: libopusenc
#include <stdlib.h>
#include <opusenc.h>
*/
import "C"

import (
	"io"
	"unsafe"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/bridge/native"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/registry"
	"github.com/wippyai/encbridge/sink"
)

// Encoder is a libopusenc encoder writing to an io.Writer.
// It is not safe for concurrent use.
type Encoder struct {
	w        io.Writer
	out      *sink.WriterSink
	enc      *C.OggOpusEnc
	comments *C.OggOpusComments
	opts     Options
	handle   encbridge.Handle
	drained  bool
}

// NewEncoder returns an encoder for w. Call Init before encoding.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: buildOptions(opts)}
}

// Handle returns the registry handle passed to libopusenc as user_data.
// It is zero before Init and after the stream has been closed.
func (e *Encoder) Handle() encbridge.Handle {
	return e.handle
}

// Init registers the output with the default registry and creates the
// native encoder. The writer is closed by libopusenc's close callback
// when the stream is drained.
func (e *Encoder) Init() error {
	if e.enc != nil {
		return errors.InvalidInput(errors.PhaseEncode, "encoder already initialized")
	}
	if e.w == nil {
		return errors.InvalidInput(errors.PhaseEncode, "nil writer")
	}
	if e.opts.Channels < 1 || e.opts.Channels > 255 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(e.opts.Channels).
			Detail("channel count %d out of range", e.opts.Channels).
			Build()
	}

	comments := C.ope_comments_create()
	if comments == nil {
		return errors.Encoder("ope_comments_create", C.OPE_ALLOC_FAIL, strerror(C.OPE_ALLOC_FAIL))
	}
	for _, c := range e.opts.Comments {
		if err := addComment(comments, c); err != nil {
			C.ope_comments_destroy(comments)
			return err
		}
	}

	e.out = sink.Writer(e.w)
	h, err := registry.Default().Register(e.out, registry.WithLabel("opusenc"))
	if err != nil {
		C.ope_comments_destroy(comments)
		return err
	}

	callbacks := C.OpusEncCallbacks{
		write: C.ope_write_func(native.WriteCallback()),
		close: C.ope_close_func(native.CloseCallback()),
	}

	var code C.int
	enc := C.ope_encoder_create_callbacks(&callbacks, native.UserData(h), comments,
		C.opus_int32(e.opts.Rate), C.int(e.opts.Channels), C.int(e.opts.Family), &code)
	if code != C.OPE_OK || enc == nil {
		registry.Default().Unregister(h)
		C.ope_comments_destroy(comments)
		return errors.Encoder("ope_encoder_create_callbacks", int(code), strerror(code))
	}

	e.enc = enc
	e.comments = comments
	e.handle = h

	Logger().Debug("encoder created",
		zap.Uint32("handle", uint32(h)),
		zap.Int("rate", e.opts.Rate),
		zap.Int("channels", e.opts.Channels),
		zap.Stringer("family", e.opts.Family))
	return nil
}

func addComment(comments *C.OggOpusComments, c Comment) error {
	tag := C.CString(c.Tag)
	defer C.free(unsafe.Pointer(tag))
	val := C.CString(c.Value)
	defer C.free(unsafe.Pointer(val))

	if code := C.ope_comments_add(comments, tag, val); code != C.OPE_OK {
		return errors.Encoder("ope_comments_add", int(code), strerror(code))
	}
	return nil
}

// Encode submits interleaved 16-bit samples. len(pcm) must be a multiple
// of the channel count.
func (e *Encoder) Encode(pcm []int16) error {
	n, err := e.frames(len(pcm))
	if err != nil || n == 0 {
		return err
	}
	code := C.ope_encoder_write(e.enc, (*C.opus_int16)(unsafe.Pointer(&pcm[0])), C.int(n))
	return e.check("ope_encoder_write", code)
}

// EncodeFloat submits interleaved float samples in [-1, 1].
func (e *Encoder) EncodeFloat(pcm []float32) error {
	n, err := e.frames(len(pcm))
	if err != nil || n == 0 {
		return err
	}
	code := C.ope_encoder_write_float(e.enc, (*C.float)(unsafe.Pointer(&pcm[0])), C.int(n))
	return e.check("ope_encoder_write_float", code)
}

func (e *Encoder) frames(samples int) (int, error) {
	if e.enc == nil {
		return 0, errors.NotInitialized(errors.PhaseEncode, "encoder")
	}
	if e.drained {
		return 0, errors.Closed(errors.PhaseEncode, "stream")
	}
	if samples%e.opts.Channels != 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(samples).
			Detail("%d samples is not a multiple of %d channels", samples, e.opts.Channels).
			Build()
	}
	return samples / e.opts.Channels, nil
}

// Drain flushes buffered audio and finalizes the stream. libopusenc
// closes the output through the close callback, which releases the handle.
func (e *Encoder) Drain() error {
	if e.enc == nil {
		return errors.NotInitialized(errors.PhaseEncode, "encoder")
	}
	if e.drained {
		return nil
	}
	e.drained = true
	return e.check("ope_encoder_drain", C.ope_encoder_drain(e.enc))
}

// Close destroys the native encoder. An undrained stream is abandoned:
// its handle is released without closing the writer.
func (e *Encoder) Close() error {
	if e.enc == nil {
		return nil
	}

	C.ope_encoder_destroy(e.enc)
	C.ope_comments_destroy(e.comments)
	e.enc = nil
	e.comments = nil

	if _, live := registry.Default().Unregister(e.handle); live {
		Logger().Warn("encoder closed before drain", zap.Uint32("handle", uint32(e.handle)))
	}
	e.handle = 0

	return e.out.Err()
}

func (e *Encoder) check(op string, code C.int) error {
	if code == C.OPE_OK {
		return nil
	}
	return multierr.Append(
		errors.Encoder(op, int(code), strerror(code)),
		e.out.Err(),
	)
}

func strerror(code C.int) string {
	return C.GoString(C.ope_strerror(code))
}
