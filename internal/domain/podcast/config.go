package podcast

// Config holds podcast domain configuration.
type Config struct {
	// DefaultModel is used when the request names no model.
	DefaultModel string

	// DefaultStyle is used when the request names no style.
	DefaultStyle string

	// DefaultDuration is used when the request duration is below one minute.
	DefaultDuration int

	// HistoryLimit caps ListEpisodes.
	HistoryLimit int
}

// DefaultConfig returns default podcast configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultModel:    "llama3.2:3b",
		DefaultStyle:    "conversational",
		DefaultDuration: 3,
		HistoryLimit:    100,
	}
}
