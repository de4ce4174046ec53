// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func prettyFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

// serveCommand runs the web application.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the catalog web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the catalog in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the local database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent local database migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// videoCommand exposes the video reference normalizer.
func videoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "video",
		Usage: "Video reference tools",
		Commands: []*cli.Command{
			{
				Name:  "normalize",
				Usage: "Print the player URL for a share link, iframe snippet or player URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "reference"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stdin",
						Usage: "Read the reference from standard input",
					},
					jsonFlag(),
				},
				Action: r.VideoNormalize,
			},
		},
	}
}

// coursesCommand handles catalog browsing, authoring and export.
func coursesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "courses",
		Aliases: []string{"course"},
		Usage:   "Course catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List courses, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only courses in this category slug",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Match title or description",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include drafts",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of courses to return",
						Value: 50,
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.CoursesList,
			},
			{
				Name:  "show",
				Usage: "Show one course with its resolved video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "Report whether this user liked the course",
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.CoursesShow,
			},
			{
				Name:  "create",
				Usage: "Create a course",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Course title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Course description",
					},
					&cli.FloatFlag{
						Name:  "price",
						Usage: "Price in rubles; 0 means free",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category slug",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Cover image URL",
					},
					&cli.StringFlag{
						Name:  "video",
						Usage: "Player URL, share link or iframe snippet",
					},
					&cli.StringFlag{
						Name:     "author",
						Usage:    "Author ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "draft or published",
						Value: "draft",
					},
					jsonFlag(),
				},
				Action: r.CoursesCreate,
			},
			{
				Name:  "export",
				Usage: "Export the catalog to json, csv, markdown or txt",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, or directory for --bulk and markdown",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only courses in this category slug",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include drafts",
					},
					&cli.BoolFlag{
						Name:  "bulk",
						Usage: "Write one export per category",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers for --bulk",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images (markdown only)",
					},
				},
				Action: r.CoursesExport,
			},
		},
	}
}

// likesCommand handles favorites.
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "likes",
		Aliases: []string{"favorites"},
		Usage:   "Favorite courses",
		Commands: []*cli.Command{
			{
				Name:  "toggle",
				Usage: "Like a course, or remove an existing like",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "course",
						Usage:    "Course ID",
						Required: true,
					},
				},
				Action: r.LikesToggle,
			},
			{
				Name:  "list",
				Usage: "List a user's favorite courses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User ID",
						Required: true,
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.LikesList,
			},
		},
	}
}

// maintenanceCommand groups data repair jobs.
func maintenanceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "maintenance",
		Usage: "Data maintenance jobs",
		Commands: []*cli.Command{
			{
				Name:  "renormalize",
				Usage: "Rewrite stored video references to their player URLs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report what would change without writing",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Maximum writes per second",
						Value: 5,
					},
					jsonFlag(),
				},
				Action: r.Renormalize,
			},
		},
	}
}

// apiCommand handles direct REST calls against the hosted backend
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct REST calls to the Supabase backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the catalog.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the catalog in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID used for likes",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the UI owns the terminal",
				Value: "./tmp/uus-tui.log",
			},
		},
		Action: r.TUI,
	}
}
