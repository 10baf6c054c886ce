package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type options struct {
	payloadPath string
	wizardPath  string
	mode        string
	entity      string
	format      string
	outDir      string
	weekStart   string
	weeks       int
	listOnly    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.payloadPath, "payload", "", "Path to the solver result JSON")
	flag.StringVar(&opts.wizardPath, "wizard", "", "Optional wizard JSON supplying timing, faculty and rooms")
	flag.StringVar(&opts.mode, "mode", "MASTER", "View mode: MASTER, TEACHER, CLASSROOM or LAB")
	flag.StringVar(&opts.entity, "entity", "", "Division, teacher or room to render; empty renders every entity")
	flag.StringVar(&opts.format, "format", "csv", "Output format: csv, pdf, xlsx or ics")
	flag.StringVar(&opts.outDir, "out", filepath.Join("tmp", "timetables"), "Output directory")
	flag.StringVar(&opts.weekStart, "week-start", "", "Calendar start date (YYYY-MM-DD), ics only")
	flag.IntVar(&opts.weeks, "weeks", 15, "Weekly recurrences, ics only")
	flag.BoolVar(&opts.listOnly, "list", false, "Print the selectable entities and exit")
	flag.Parse()

	if opts.payloadPath == "" {
		log.Fatal("-payload is required")
	}

	wizard, err := loadWizard(opts.wizardPath)
	if err != nil {
		log.Fatalf("failed to load wizard: %v", err)
	}
	timing := models.DefaultTiming()
	if wizard.Timing != nil {
		timing = *wizard.Timing
	}
	grid, err := timetable.BuildGrid(timing)
	if err != nil {
		log.Fatalf("invalid timing: %v", err)
	}

	var req dto.LoadTimetableRequest
	if err := readJSON(opts.payloadPath, &req); err != nil {
		log.Fatalf("failed to read payload: %v", err)
	}
	store := timetable.NewStore()
	if err := store.Load(req.Timetable); err != nil {
		log.Fatalf("payload rejected: %v", err)
	}

	mode, err := timetable.ParseViewMode(opts.mode)
	if err != nil {
		log.Fatalf("%v", err)
	}
	format := models.ExportFormat(strings.ToLower(opts.format))
	if !format.Valid() {
		log.Fatalf("unsupported format %q", opts.format)
	}

	var infra models.Infrastructure
	if wizard.Infrastructure != nil {
		infra = *wizard.Infrastructure
	}
	entities := []string{opts.entity}
	if opts.entity == "" || opts.listOnly {
		entities = timetable.Entities(mode, store, wizard.Faculty, infra)
	}
	if opts.listOnly {
		for _, entity := range entities {
			fmt.Println(entity)
		}
		return
	}
	if len(entities) == 0 {
		log.Fatalf("no %s entities in payload", mode)
	}

	start, err := weekStart(opts.weekStart)
	if err != nil {
		log.Fatalf("invalid -week-start: %v", err)
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	r := renderer{store: store, grid: grid, faculty: wizard.Faculty, weekStart: start, weeks: opts.weeks}
	for _, entity := range entities {
		data, err := r.render(mode, entity, format)
		if err != nil {
			log.Fatalf("failed to render %s: %v", entity, err)
		}
		name := fmt.Sprintf("Timetable_%s_%s.%s", mode, strings.ReplaceAll(entity, " ", "_"), format)
		path := filepath.Join(opts.outDir, strings.ReplaceAll(name, "/", "-"))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(data))
	}
}

type renderer struct {
	store     *timetable.Store
	grid      timetable.Grid
	faculty   []models.Faculty
	weekStart time.Time
	weeks     int
}

func (r renderer) render(mode timetable.ViewMode, entity string, format models.ExportFormat) ([]byte, error) {
	if format == models.ExportFormatICS {
		events := timetable.BuildEvents(r.store, r.grid, mode, entity, r.faculty, r.weekStart, r.weeks, time.UTC)
		return export.NewICSExporter().Render(fmt.Sprintf("Timetable %s %s", mode, entity), events)
	}
	dataset := timetable.BuildTable(r.store, r.grid, mode, entity, r.faculty)
	switch format {
	case models.ExportFormatPDF:
		return export.NewPDFExporter().Render(dataset, dataset.Title)
	case models.ExportFormatXLSX:
		return export.NewXLSXExporter().Render(dataset, string(mode))
	default:
		return export.NewCSVExporter().Render(dataset)
	}
}

func loadWizard(path string) (dto.CreateSessionRequest, error) {
	var wizard dto.CreateSessionRequest
	if path == "" {
		return wizard, nil
	}
	err := readJSON(path, &wizard)
	return wizard, err
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty file")
	}
	return json.Unmarshal(data, dest)
}

func weekStart(raw string) (time.Time, error) {
	if raw != "" {
		return time.ParseInLocation("2006-01-02", raw, time.UTC)
	}
	now := time.Now().UTC()
	monday := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC), nil
}
