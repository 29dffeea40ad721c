// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
		Sources: cli.EnvVars("APOSTLES_CONFIG"),
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the artist and content API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Interface to listen on",
				Sources: cli.EnvVars("APOSTLES_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Sources: cli.EnvVars("APOSTLES_PORT", "PORT"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Database path, or :memory: for a throwaway store",
				Sources: cli.EnvVars("APOSTLES_DB"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("APOSTLES_LOG_LEVEL"),
			},
		},
		Action: r.Serve,
	}
}

// setupCommand bootstraps configuration and storage
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recently applied migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.RollbackDatabase,
			},
		},
	}
}

// taxonomyCommand prints the categories and genres the server would load
func taxonomyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "taxonomy",
		Usage: "Print the content categories and genres",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Taxonomy,
	}
}

// exportCommand writes catalog snapshots from a file database
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export songs and albums from the database",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "Export songs as CSV, Markdown or plain text",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Only export songs by this display name",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ExportSongs,
			},
			{
				Name:  "album",
				Usage: "Export an album and its tracks as Markdown",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Album ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
				},
				Action: r.ExportAlbum,
			},
			{
				Name:  "albums",
				Usage: "Export every album concurrently with a JSON manifest",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: album_export_{epoch})",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Only export albums by this display name",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Albums started per second, 0 for unlimited",
					},
				},
				Action: r.ExportAlbums,
			},
		},
	}
}
