package config

import (
	"github.com/hyperjump/kotaeru/internal/answer"
	"github.com/hyperjump/kotaeru/internal/chunker"
	"github.com/hyperjump/kotaeru/internal/retrieval"
	"github.com/hyperjump/kotaeru/internal/service"
	"github.com/hyperjump/kotaeru/internal/textproc"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".kotaeru/documents.db"
	}
	if cfg.Processing.MaxFileSizeBytes == 0 {
		cfg.Processing.MaxFileSizeBytes = service.DefaultMaxFileSizeBytes
	}
	if cfg.Processing.MaxChunkSize == 0 {
		cfg.Processing.MaxChunkSize = chunker.DefaultMaxChunkSize
	}
	if cfg.Processing.Text == nil {
		opts := textproc.DefaultOptions()
		cfg.Processing.Text = &opts
	}
	if cfg.Scoring == nil {
		cfg.Scoring = retrieval.DefaultScoringConfig()
	} else {
		cfg.Scoring.ApplyDefaults()
	}
	if cfg.Answer == nil {
		cfg.Answer = answer.DefaultConfig()
	} else {
		cfg.Answer.ApplyDefaults()
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
