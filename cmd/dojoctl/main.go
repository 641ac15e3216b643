package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/config"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/db"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/export"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/seed"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/verify"
	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dojoctl",
		Usage: "operate the tournament database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file", EnvVars: []string{"CONFIG_FILE"}},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			verifyCommand(),
			exportCommand(),
		},
	}
}

// open loads the configuration named by the global flag and connects to the database.
func open(c *cli.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}

func migrateCommand() *cli.Command {
	run := func(step func(m *migrate.Migrate) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, database, err := open(c)
			if err != nil {
				return err
			}
			defer database.Close()

			m, err := db.NewMigrator(database.DB, cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("No migrations applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Database at version %d (dirty: %t)\n", version, dirty)
			return nil
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "apply all pending migrations", Action: run(func(m *migrate.Migrate) error { return m.Up() })},
			{Name: "down", Usage: "roll back one migration", Action: run(func(m *migrate.Migrate) error { return m.Steps(-1) })},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create an event with fake approved registrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event-name", Usage: "event name, random when empty"},
			&cli.IntFlag{Name: "participants", Value: 64, Usage: "number of registrations"},
			&cli.Uint64Flag{Name: "seed", Value: uint64(time.Now().UnixNano()), Usage: "random seed"},
			&cli.TimestampFlag{Name: "date", Layout: time.DateOnly, Usage: "event date, four weeks out when empty"},
		},
		Action: func(c *cli.Context) error {
			_, database, err := open(c)
			if err != nil {
				return err
			}
			defer database.Close()

			eventDate := time.Now().UTC().AddDate(0, 0, 28).Truncate(24 * time.Hour)
			if ts := c.Timestamp("date"); ts != nil {
				eventDate = *ts
			}

			event, err := seed.New(c.Uint64("seed")).Event(c.Context, database, c.String("event-name"), eventDate, c.Int("participants"))
			if err != nil {
				return err
			}
			fmt.Printf("Created event %q (%s) with %d registrations\n", event.Name, event.ID, c.Int("participants"))
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check every completed bracket for rule violations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Usage: "limit to one event id"},
			&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "brackets checked at once"},
		},
		Action: func(c *cli.Context) error {
			_, database, err := open(c)
			if err != nil {
				return err
			}
			defer database.Close()

			var eventID *uuid.UUID
			if v := c.String("event"); v != "" {
				id, err := uuid.Parse(v)
				if err != nil {
					return fmt.Errorf("invalid event id: %w", err)
				}
				eventID = &id
			}

			tournamentStore := store.NewTournamentStore(database)
			brackets, err := tournamentStore.ListBracketsByStatus(c.Context, bracket.BracketCompleted, eventID)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(brackets))
			for _, b := range brackets {
				ids = append(ids, b.ID)
			}

			violations, err := verify.Brackets(c.Context, tournamentStore, ids, c.Int("concurrency"))
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Println(v)
			}
			fmt.Printf("Checked %d brackets, %d violations\n", len(ids), len(violations))
			if len(violations) > 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a bracket's results workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bracket", Required: true, Usage: "bracket id"},
			&cli.PathFlag{Name: "out", Value: "results.xlsx", Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			_, database, err := open(c)
			if err != nil {
				return err
			}
			defer database.Close()

			bracketID, err := uuid.Parse(c.String("bracket"))
			if err != nil {
				return fmt.Errorf("invalid bracket id: %w", err)
			}

			data, err := loadExport(c, store.NewTournamentStore(database), bracketID)
			if err != nil {
				return err
			}

			f, err := os.Create(c.Path("out"))
			if err != nil {
				return err
			}
			if err := export.Write(f, *data); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("Wrote %d results to %s\n", len(data.Results), c.Path("out"))
			return nil
		},
	}
}

func loadExport(c *cli.Context, s *store.TournamentStore, bracketID uuid.UUID) (*export.Bracket, error) {
	b, err := s.GetBracket(c.Context, bracketID)
	if err != nil {
		return nil, err
	}
	cat, err := s.GetCategory(c.Context, b.CategoryID)
	if err != nil {
		return nil, err
	}
	entries, err := s.GetEntries(c.Context, bracketID)
	if err != nil {
		return nil, err
	}
	matches, err := s.GetMatches(c.Context, bracketID)
	if err != nil {
		return nil, err
	}
	results, err := s.GetResults(c.Context, bracketID)
	if err != nil {
		return nil, err
	}
	return &export.Bracket{Bracket: b, Category: cat, Entries: entries, Matches: matches, Results: results}, nil
}
