package config

var defaultConfig = Config{
	VisibleTiles: 2,
	Autostart:    []string{},
}

type Config struct {
	// VisibleTiles is how many workspace tiles are shown at once.
	VisibleTiles int `yaml:"visible_tiles" json:"visible_tiles"`
	// Autostart lists desktop entry ids launched when the shell starts.
	Autostart []string `yaml:"autostart" json:"autostart"`
}
