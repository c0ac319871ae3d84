// Package config loads and validates the TOML configuration that wires
// the dubbing pipeline: scratch and log paths, the ffmpeg binary, the
// source language, the external speech commands and the installed
// translation capabilities.
package config
