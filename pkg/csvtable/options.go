package csvtable

// LineEnding terminates each row written by a Writer.
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

const (
	// DefaultSeparator is the cell separator used unless WithSeparator is given.
	DefaultSeparator = ','
	// MinHeaderRows is the name row plus the descriptor row.
	MinHeaderRows = 2
)

// Options controls parsing and writing. Parse reads Separator, Multiline and
// HeaderRows; Writer reads Separator and LineEnding.
type Options struct {
	Separator  rune
	Multiline  bool
	HeaderRows int
	LineEnding LineEnding
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns comma separated, multiline, two header rows, LF.
func DefaultOptions() Options {
	return Options{
		Separator:  DefaultSeparator,
		Multiline:  true,
		HeaderRows: MinHeaderRows,
		LineEnding: LF,
	}
}

// WithSeparator sets the cell separator. Quotes and line breaks are ignored.
func WithSeparator(sep rune) Option {
	return func(o *Options) {
		if sep != '"' && sep != '\n' && sep != '\r' && sep != 0 {
			o.Separator = sep
		}
	}
}

// WithMultiline toggles line breaks inside escaped cells.
func WithMultiline(enabled bool) Option {
	return func(o *Options) {
		o.Multiline = enabled
	}
}

// WithHeaderRows sets how many leading rows are metadata. Values below two
// are raised to two.
func WithHeaderRows(n int) Option {
	return func(o *Options) {
		if n < MinHeaderRows {
			n = MinHeaderRows
		}
		o.HeaderRows = n
	}
}

// WithLineEnding sets the row terminator used by Writer.
func WithLineEnding(le LineEnding) Option {
	return func(o *Options) {
		if le == LF || le == CRLF {
			o.LineEnding = le
		}
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
