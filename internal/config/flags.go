package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and candidate highlighting")
	flagProduct    = flag.String("product", "", "Product key selecting the garment model")
	flagModel      = flag.String("model", "", "Path to a .glb/.gltf model (overrides -product)")
	flagOut        = flag.String("out", "", "Export output directory")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagGarment    = flag.String("garment", "", "Garment tint as hex color, e.g. #1e3a8a")
	flagSave       = flag.Bool("save-config", false, "Write the effective config to the user config dir")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Product returns the product key given on the command line, if any.
func Product() string {
	return *flagProduct
}

// SaveRequested reports whether -save-config was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Paint.DebugHighlight = true
	}
	if *flagModel != "" {
		cfg.Model.Path = *flagModel
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagGarment != "" {
		cfg.Paint.GarmentColor = *flagGarment
	}
}
