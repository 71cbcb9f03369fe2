package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"github.com/cosmosuniversity/studentrecords/internal/config"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/entities"
	"github.com/cosmosuniversity/studentrecords/internal/entrypoint"
	"github.com/cosmosuniversity/studentrecords/internal/repository"
)

// StudentCreator is the part of the student repository the seed command needs.
type StudentCreator interface {
	Create(ctx context.Context, student *entities.Student) (*documentdb.Document, error)
}

// SeedCommand bulk-creates students from a JSON array file.
type SeedCommand struct {
	FilePath string
	DryRun   bool
	Verbose  bool

	Out io.Writer
}

// SeedReport counts the outcome of a seed run.
type SeedReport struct {
	Created  int
	Skipped  int
	Invalid  int
	Failures []string
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{Out: os.Stdout}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON array of students (required)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Validate the file without writing anything")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every student as it is processed")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create students from a JSON file in the configured document store.\n")
		fmt.Fprintf(os.Stderr, "Students whose id already exists are skipped and reported.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample file:\n")
		fmt.Fprintf(os.Stderr, "  [{\"id\": \"s1\", \"pk\": 100, \"name\": \"Ada Lovelace\", \"major\": \"Mathematics\"}]\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed -file students.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  DOCUMENTDB_DRIVER=surreal DOCUMENTDB_ENDPOINT=ws://localhost:8000 %s seed -file students.json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *SeedCommand) Run() error {
	fmt.Fprintln(cmd.Out, "Seed Students")
	fmt.Fprintln(cmd.Out, "=============")

	if cmd.DryRun {
		fmt.Fprintln(cmd.Out, "DRY RUN MODE - No changes will be made")
		fmt.Fprintln(cmd.Out)
	}

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	students, err := ReadStudents(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Out, "File: %s (%d students)\n", cmd.FilePath, len(students))

	var creator StudentCreator
	if !cmd.DryRun {
		cfg := config.NewConfig()
		store, err := entrypoint.OpenStore(context.Background(), cfg, zerolog.Nop())
		if err != nil {
			return fmt.Errorf("failed to open document store: %w", err)
		}
		defer store.Client.Close()
		creator = repository.NewStudentRepository(store.Client)
	}

	report, err := cmd.Seed(context.Background(), creator, students)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Out)
	fmt.Fprintf(cmd.Out, "Created: %d\n", report.Created)
	fmt.Fprintf(cmd.Out, "Skipped (already exist): %d\n", report.Skipped)
	fmt.Fprintf(cmd.Out, "Invalid: %d\n", report.Invalid)
	for _, failure := range report.Failures {
		fmt.Fprintf(cmd.Out, "  - %s\n", failure)
	}
	return nil
}

// ReadStudents decodes a JSON array of students.
func ReadStudents(r io.Reader) ([]entities.Student, error) {
	var students []entities.Student
	if err := json.NewDecoder(r).Decode(&students); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return students, nil
}

// Seed validates each student with the same rules as the create form and
// creates it. A nil creator validates only. Conflicts are skipped; any
// other store error stops the run.
func (cmd *SeedCommand) Seed(ctx context.Context, creator StudentCreator, students []entities.Student) (*SeedReport, error) {
	report := &SeedReport{}
	for i := range students {
		student := &students[i]
		label := fmt.Sprintf("#%d %s", i+1, student.DisplayName())

		if err := binding.Validator.ValidateStruct(student); err != nil {
			report.Invalid++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: invalid: %v", label, err))
			continue
		}

		if creator == nil {
			if cmd.Verbose {
				fmt.Fprintf(cmd.Out, "would create %s\n", label)
			}
			report.Created++
			continue
		}

		doc, err := creator.Create(ctx, student)
		switch {
		case errors.Is(err, documentdb.ErrConflict):
			report.Skipped++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: id %q already exists", label, student.ID))
		case err != nil:
			return report, fmt.Errorf("create %s: %w", label, err)
		default:
			report.Created++
			if cmd.Verbose {
				fmt.Fprintf(cmd.Out, "created %s (id %s, pk %d)\n", label, doc.ID, doc.PartitionKey)
			}
		}
	}
	return report, nil
}
