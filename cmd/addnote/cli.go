package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"course-notes-admin/internal/bootstrap"
	"course-notes-admin/internal/config"
	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/dto"
	"course-notes-admin/internal/entity"
	"course-notes-admin/internal/pkg/logger"
	"course-notes-admin/internal/repository/memory"
	"course-notes-admin/internal/service"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v2"
)

const cliDraftId = "cli"

func newCLIApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:    "addnote",
		Usage:   "Upload PDF notes and browse courses from the terminal",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(cfg),
			coursesCmd(cfg),
		},
	}
}

func addCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Upload a PDF and attach it to a topic",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "route", Aliases: []string{"r"}, Required: true, Usage: "Page path, e.g. /math/course/algebra-1/unit-2/topic-3/add-notes"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Note display name"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to the PDF"},
		},
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			key, err := entity.ParseRouteKey(c.String("route"))
			if err != nil {
				return err
			}

			file, err := readFile(c.String("file"))
			if err != nil {
				return err
			}

			store, closeStore, err := bootstrap.NewObjectStore(c.Context, cfg.Storage)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}

			noteService := service.NewNoteService(
				memory.NewNoteDraftRepository(cfg.App.DraftTTL),
				store,
				courseapi.NewClient(cfg.CourseAPI.BaseURL, cfg.CourseAPI.Timeout),
				&terminalProgress{},
				nil,
				logger.NewIsolatedLogger(cfg.App.LogFilePath),
			)

			return addNote(c.Context, noteService, key, c.String("name"), file)
		},
	}
}

func addNote(ctx context.Context, noteService service.INoteService, key entity.RouteKey, name string, file *entity.DraftFile) error {
	if draft, err := noteService.SelectFile(ctx, cliDraftId, key, file); err != nil {
		color.Red("%s (%s)", draft.Message, file.ContentType)
		return cli.Exit("", 1)
	}

	color.Cyan("Adding %q to %s", name, key)
	draft, err := noteService.Submit(ctx, cliDraftId, key, name)
	if err != nil {
		color.Red("%s", draft.Message)
		return cli.Exit("", 1)
	}
	color.Green("%s", draft.Message)
	return nil
}

func coursesCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "courses",
		Usage:     "List the courses of a category",
		ArgsUsage: "<category>",
		Action: func(c *cli.Context) error {
			category := c.Args().First()
			if category == "" {
				return errors.New("category is required")
			}

			api := courseapi.NewClient(cfg.CourseAPI.BaseURL, cfg.CourseAPI.Timeout)
			courses, err := api.CoursesForCategory(c.Context, category)
			if err != nil {
				return err
			}

			color.Yellow("%d course(s) in %s", len(courses), category)
			for _, course := range courses {
				fmt.Printf("  %-20s %s\n", course.CourseId, course.Title)
			}
			return nil
		},
	}
}

func readFile(path string) (*entity.DraftFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &entity.DraftFile{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// terminalProgress renders progress frames in place on one line.
type terminalProgress struct {
	mu        sync.Mutex
	uploading bool
}

func (p *terminalProgress) PublishProgress(_ context.Context, msg dto.UploadProgressMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.State == string(entity.DraftUploading) {
		fmt.Printf("\rUpload Progress: %6.2f%%", msg.UploadProgress)
		p.uploading = true
		return nil
	}
	if p.uploading {
		fmt.Println()
		p.uploading = false
	}
	return nil
}
