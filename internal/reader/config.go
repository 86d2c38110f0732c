package reader

import "time"

// DefaultKeyTimeout matches the traditional KEYTIMEOUT of 40 hundredths.
const DefaultKeyTimeout = 400 * time.Millisecond

// DefaultMaxEOFRetries bounds consecutive terminal EOFs tolerated when
// EOF is ignored; a dead terminal would otherwise spin forever.
const DefaultMaxEOFRetries = 20

// Config configures a Reader.
type Config struct {
	// KeyTimeout is the configured key timeout; zero disables it.
	KeyTimeout time.Duration

	// ContinuationTimeout bounds the wait for the remaining bytes of a
	// multibyte character.
	ContinuationTimeout time.Duration

	// IgnoreEOF retries terminal EOFs instead of treating them as fatal.
	IgnoreEOF bool

	// MaxEOFRetries is the retry bound used with IgnoreEOF.
	MaxEOFRetries int

	// Multibyte enables character assembly in the configured charset.
	Multibyte bool

	// Charset names the input character set. Empty means UTF-8.
	Charset string
}

// DefaultConfig returns the default reader configuration.
func DefaultConfig() Config {
	return Config{
		KeyTimeout:          DefaultKeyTimeout,
		ContinuationTimeout: DefaultKeyTimeout,
		MaxEOFRetries:       DefaultMaxEOFRetries,
		Multibyte:           true,
		Charset:             "utf-8",
	}
}

// WithKeyTimeout returns a copy with the key timeout set.
func (c Config) WithKeyTimeout(d time.Duration) Config {
	c.KeyTimeout = d
	return c
}

// WithIgnoreEOF returns a copy with EOF handling set.
func (c Config) WithIgnoreEOF(ignore bool) Config {
	c.IgnoreEOF = ignore
	return c
}

// WithMultibyte returns a copy with multibyte decoding set.
func (c Config) WithMultibyte(on bool) Config {
	c.Multibyte = on
	return c
}

// WithCharset returns a copy with the charset set.
func (c Config) WithCharset(charset string) Config {
	c.Charset = charset
	return c
}
