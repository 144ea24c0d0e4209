package opusenc

// Family is the Opus channel mapping family.
type Family int

const (
	MonoStereo Family = 0
	Surround   Family = 1
)

func (f Family) String() string {
	switch f {
	case MonoStereo:
		return "mono-stereo"
	case Surround:
		return "surround"
	default:
		return "unknown"
	}
}

// Defaults used by NewEncoder.
const (
	DefaultRate     = 48000
	DefaultChannels = 2
)

// Comment is one Vorbis comment tag.
type Comment struct {
	Tag   string
	Value string
}

// Options configures an Encoder.
type Options struct {
	Comments []Comment
	Rate     int
	Channels int
	Family   Family
}

// Option configures an Encoder.
type Option func(*Options)

// WithRate sets the input sample rate in Hz.
func WithRate(hz int) Option {
	return func(o *Options) { o.Rate = hz }
}

// WithChannels sets the number of interleaved input channels.
func WithChannels(n int) Option {
	return func(o *Options) { o.Channels = n }
}

// WithFamily sets the channel mapping family.
func WithFamily(f Family) Option {
	return func(o *Options) { o.Family = f }
}

// WithComment adds a comment tag to the stream header.
func WithComment(tag, value string) Option {
	return func(o *Options) { o.Comments = append(o.Comments, Comment{Tag: tag, Value: value}) }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Rate:     DefaultRate,
		Channels: DefaultChannels,
		Family:   MonoStereo,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
