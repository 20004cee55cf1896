package codec

type options struct {
	assets  AssetProvider
	metrics *Metrics
}

// Option configures an Encoder or Decoder.
type Option func(*options)

// WithAssets sets the provider used for asset wrapper fields.
func WithAssets(p AssetProvider) Option {
	return func(o *options) { o.assets = p }
}

// WithMetrics records encode and decode counts.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
