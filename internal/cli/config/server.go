package config

import (
	"github.com/urfave/cli/v3"

	domain "resolveit/backend/internal/config"
	"resolveit/backend/internal/upload"
)

// Server holds the HTTP listener settings.
type Server struct {
	addr           string
	allowedOrigins []string
	uploadDir      string
	maxUpload      int
}

func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RESOLVEIT_ADDR"),
			Destination: &s.addr,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "Origin allowed for CORS and websockets (repeatable; '*' allows any)",
			Value:       []string{"http://localhost:3000"},
			Sources:     cli.EnvVars("RESOLVEIT_ALLOWED_ORIGINS"),
			Destination: &s.allowedOrigins,
		},
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory attachments are stored in",
			Value:       domain.DefaultUploadDir,
			Sources:     cli.EnvVars("RESOLVEIT_UPLOAD_DIR"),
			Destination: &s.uploadDir,
		},
		&cli.IntFlag{
			Name:        "max-upload-bytes",
			Usage:       "Largest accepted attachment",
			Value:       domain.MaxAttachmentBytes,
			Sources:     cli.EnvVars("RESOLVEIT_MAX_UPLOAD_BYTES"),
			Destination: &s.maxUpload,
		},
	}
}

func (s *Server) Addr() string             { return s.addr }
func (s *Server) AllowedOrigins() []string { return s.allowedOrigins }

func (s *Server) Uploads() (*upload.Store, error) {
	return upload.NewStore(s.uploadDir, int64(s.maxUpload))
}
